package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mir-ashiq/Travelers-sub001/internal/core/events"
)

// EventHandler mirrors payment lifecycle events into the audit trail so the
// trail stays complete even for transitions no operator triggered.
type EventHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewEventHandler(service *Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

func (h *EventHandler) HandlePaymentCompleted(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PaymentCompletedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentCompletedEvent, got %T", event)
	}

	h.service.Record(ctx, nil, "payment.completed", "booking", e.BookingID, map[string]interface{}{
		"gateway_ref": e.GatewayRef,
		"amount":      e.Amount,
		"currency":    e.Currency,
	})
	return nil
}

func (h *EventHandler) HandlePaymentFailed(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PaymentFailedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment failed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentFailedEvent, got %T", event)
	}

	h.service.Record(ctx, nil, "payment.failed", "booking", e.BookingID, map[string]interface{}{
		"gateway_ref":    e.GatewayRef,
		"failure_reason": e.FailureReason,
	})
	return nil
}

func (h *EventHandler) HandlePaymentRefunded(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PaymentRefundedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment refunded handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentRefundedEvent, got %T", event)
	}

	h.service.Record(ctx, nil, "payment.refunded", "booking", e.BookingID, map[string]interface{}{
		"gateway_ref":   e.GatewayRef,
		"refund_amount": e.RefundAmount,
	})
	return nil
}

func (h *EventHandler) HandleBookingConflict(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.BookingConflictEvent)
	if !ok {
		h.logger.Error("invalid event type for booking conflict handler", "event_type", event.EventType())
		return fmt.Errorf("expected BookingConflictEvent, got %T", event)
	}

	h.service.Record(ctx, nil, "booking.payment_conflict", "booking", e.BookingID, map[string]interface{}{
		"gateway_ref": e.GatewayRef,
		"reason":      e.Reason,
	})
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentCompleted, h.HandlePaymentCompleted)
	eventBus.Subscribe(events.EventTypePaymentFailed, h.HandlePaymentFailed)
	eventBus.Subscribe(events.EventTypePaymentRefunded, h.HandlePaymentRefunded)
	eventBus.Subscribe(events.EventTypeBookingConflict, h.HandleBookingConflict)

	h.logger.Info("audit event handlers registered",
		"handlers", []string{
			events.EventTypePaymentCompleted,
			events.EventTypePaymentFailed,
			events.EventTypePaymentRefunded,
			events.EventTypeBookingConflict,
		})
}
