package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/mir-ashiq/Travelers-sub001/internal"
	bookingDatamodel "github.com/mir-ashiq/Travelers-sub001/internal/core/datamodel/booking"
	"github.com/mir-ashiq/Travelers-sub001/internal/core/events"
	"github.com/mir-ashiq/Travelers-sub001/internal/core/locks"
	"github.com/mir-ashiq/Travelers-sub001/internal/paymentgateway"
)

// Audit action names written by the payment paths.
const (
	AuditActionRefund          = "payment.refund"
	AuditActionPaidAfterCancel = "payment.paid_after_cancel"
	AuditActionUnknownEvent    = "webhook.unknown_event"
)

// Service owns the transaction ledger. Every ledger transition, whether it
// arrives as a webhook or as a synchronous refund acknowledgement, goes
// through ApplyGatewayEvent under the booking's lock.
type Service struct {
	txRepo      Repository
	bookingRepo BookingStore
	gateway     paymentgateway.Client
	locks       *locks.KeyMutex
	eventBus    *events.EventBus
	auditor     Auditor
	logger      *slog.Logger
}

func NewService(
	txRepo Repository,
	bookingRepo BookingStore,
	gateway paymentgateway.Client,
	km *locks.KeyMutex,
	eventBus *events.EventBus,
	auditor Auditor,
	logger *slog.Logger,
) *Service {
	return &Service{
		txRepo:      txRepo,
		bookingRepo: bookingRepo,
		gateway:     gateway,
		locks:       km,
		eventBus:    eventBus,
		auditor:     auditor,
		logger:      logger,
	}
}

// CreatePaymentIntent opens an intent at the gateway and records a pending
// ledger row keyed by the gateway-issued reference. A gateway timeout leaves
// no local state beyond what the webhook can later resolve.
func (s *Service) CreatePaymentIntent(ctx context.Context, dto CreateIntentDTO) (*IntentResponseDTO, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	b, err := s.bookingRepo.GetByID(dto.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == bookingDatamodel.StatusCancelled {
		return nil, internal.ErrBookingCancelled
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, paymentgateway.IntentRequest{
		BookingID: b.ID,
		Amount:    b.Amount,
		Currency:  b.Currency,
	})
	if err != nil {
		s.logger.Error("gateway intent creation failed", "booking_id", b.ID, "error", err)
		return nil, err
	}

	tx := &Transaction{
		BookingID:  b.ID,
		GatewayRef: intent.ID,
		Amount:     b.Amount,
		Currency:   b.Currency,
		Status:     StatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := s.txRepo.Create(tx); err != nil {
		s.logger.Error("failed to record pending transaction",
			"booking_id", b.ID,
			"gateway_ref", intent.ID,
			"error", err)
		return nil, internal.NewStorageError("failed to record transaction", err)
	}

	s.logger.Info("payment intent recorded",
		"booking_id", b.ID,
		"gateway_ref", intent.ID,
		"amount", b.Amount)

	return &IntentResponseDTO{
		GatewayRef:   intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       intent.Status,
	}, nil
}

// ApplyGatewayEvent is the single transition routine for ledger state. It
// loads the transaction by gateway reference, takes the booking's lock, and
// applies the transaction transition followed by the booking transition.
// State only moves forward: a replayed event is acknowledged without writes
// once both halves reflect it, and a late event arriving after a further
// transition is acknowledged without being applied. The checks run inside
// the lock so two copies of the same retried event cannot both pass them.
func (s *Service) ApplyGatewayEvent(ctx context.Context, event GatewayEvent) error {
	implied := event.ImpliedStatus()
	if implied == "" {
		return internal.NewValidationError("unrecognized event type", internal.ErrCodeValidationFailed)
	}

	tx, err := s.txRepo.GetByGatewayRef(event.GatewayRef)
	if err != nil {
		return err
	}

	return s.locks.WithLock(tx.BookingID, func() error {
		// Reload inside the lock: a concurrent duplicate may have applied
		// the transition between the lookup above and lock acquisition.
		tx, err := s.txRepo.GetByGatewayRef(event.GatewayRef)
		if err != nil {
			return err
		}

		if tx.Status == implied {
			// The ledger half already landed. The booking half may still be
			// missing if a previous delivery failed between the two writes.
			return s.catchUpBooking(ctx, tx, event, implied)
		}

		if event.Type == EventChargeRefunded && tx.Status != StatusCompleted {
			s.logger.Warn("refund event for a transaction that is not completed",
				"gateway_ref", event.GatewayRef,
				"status", tx.Status)
			return internal.ErrNoCompletedPayment
		}

		// The ledger only moves forward: pending may transition anywhere,
		// completed only to refunded. Anything else is a late or reordered
		// delivery; acknowledge it without touching recorded state.
		if tx.Status != StatusPending && implied != StatusRefunded {
			s.logger.Warn("out-of-order gateway event ignored",
				"gateway_ref", event.GatewayRef,
				"event_type", event.Type,
				"status", tx.Status)
			return nil
		}

		if err := s.transitionTransaction(tx, event, implied); err != nil {
			return err
		}
		if err := s.transitionBooking(ctx, tx, event, implied); err != nil {
			return err
		}

		s.publish(ctx, tx, event, implied)
		return nil
	})
}

// bookingPaymentStatusFor maps a transaction status onto the booking payment
// axis it drives toward.
func bookingPaymentStatusFor(implied string) string {
	switch implied {
	case StatusCompleted:
		return bookingDatamodel.PaymentStatusPaid
	case StatusFailed:
		return bookingDatamodel.PaymentStatusFailed
	case StatusRefunded:
		return bookingDatamodel.PaymentStatusRefunded
	}
	return ""
}

// bookingPaymentRank orders the booking payment axis so a replay can tell a
// booking that is behind the ledger from one that has moved past it.
func bookingPaymentRank(status string) int {
	switch status {
	case bookingDatamodel.PaymentStatusFailed:
		return 1
	case bookingDatamodel.PaymentStatusPaid:
		return 2
	case bookingDatamodel.PaymentStatusRefunded:
		return 3
	default:
		return 0
	}
}

// catchUpBooking handles a redelivered event whose ledger half already
// landed. A redelivery is only a true no-op once both halves are in place;
// if the booking never caught the transition, it reruns here. A booking at
// or past the implied payment status is left alone.
func (s *Service) catchUpBooking(ctx context.Context, tx *Transaction, event GatewayEvent, implied string) error {
	b, err := s.bookingRepo.GetByID(tx.BookingID)
	if err != nil {
		return internal.NewStorageError("failed to load booking", err)
	}

	if bookingPaymentRank(b.PaymentStatus) >= bookingPaymentRank(bookingPaymentStatusFor(implied)) {
		s.logger.Info("duplicate gateway event ignored",
			"gateway_ref", event.GatewayRef,
			"event_type", event.Type,
			"status", tx.Status)
		return nil
	}

	s.logger.Warn("booking behind the ledger on redelivery, rerunning booking transition",
		"booking_id", tx.BookingID,
		"gateway_ref", tx.GatewayRef)
	if err := s.transitionBooking(ctx, tx, event, implied); err != nil {
		return err
	}
	s.publish(ctx, tx, event, implied)
	return nil
}

func (s *Service) transitionTransaction(tx *Transaction, event GatewayEvent, implied string) error {
	fields := map[string]interface{}{
		"status":     implied,
		"updated_at": time.Now(),
	}
	if len(event.Raw) > 0 {
		fields["gateway_response"] = event.Raw
	}
	switch implied {
	case StatusRefunded:
		fields["refund_amount"] = event.AmountRefunded
	case StatusFailed:
		if event.FailureReason != "" {
			fields["failure_reason"] = event.FailureReason
		}
	}

	if err := s.txRepo.UpdateFields(tx.ID, fields); err != nil {
		s.logger.Error("ledger transition failed",
			"gateway_ref", tx.GatewayRef,
			"to_status", implied,
			"error", err)
		return internal.NewStorageError("failed to update transaction", err)
	}
	tx.Status = implied
	return nil
}

// transitionBooking applies the booking-side half of the transition. A
// failure here after the ledger write must surface as retryable: the sender
// redelivers, the ledger transition no-ops, and only this half reruns.
func (s *Service) transitionBooking(ctx context.Context, tx *Transaction, event GatewayEvent, implied string) error {
	b, err := s.bookingRepo.GetByID(tx.BookingID)
	if err != nil {
		return internal.NewStorageError("failed to load booking after ledger write", err)
	}

	fields := map[string]interface{}{"updated_at": time.Now()}
	switch implied {
	case StatusCompleted:
		fields["payment_status"] = bookingDatamodel.PaymentStatusPaid
		switch b.Status {
		case bookingDatamodel.StatusPending:
			fields["status"] = bookingDatamodel.StatusConfirmed
		case bookingDatamodel.StatusCancelled:
			// Payment completed after an admin cancelled. The money is
			// recorded, the cancellation stands; flag for reconciliation.
			s.logger.Warn("payment completed for a cancelled booking",
				"booking_id", b.ID,
				"gateway_ref", tx.GatewayRef)
			s.auditor.Record(ctx, nil, AuditActionPaidAfterCancel, "booking", b.ID, map[string]interface{}{
				"gateway_ref": tx.GatewayRef,
				"amount":      tx.Amount,
			})
			s.eventBus.Publish(ctx, events.NewBookingConflictEvent(b.ID, tx.GatewayRef, "paid_after_cancel"))
		}
	case StatusFailed:
		// A failed charge never cancels the booking; it stays pending for
		// another attempt.
		fields["payment_status"] = bookingDatamodel.PaymentStatusFailed
	case StatusRefunded:
		// Booking status is left to manual review, only the payment axis
		// moves.
		fields["payment_status"] = bookingDatamodel.PaymentStatusRefunded
	}

	if err := s.bookingRepo.UpdateFields(b.ID, fields); err != nil {
		s.logger.Error("booking transition failed after ledger write",
			"booking_id", b.ID,
			"gateway_ref", tx.GatewayRef,
			"error", err)
		return internal.NewStorageError("failed to update booking", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, tx *Transaction, event GatewayEvent, implied string) {
	switch implied {
	case StatusCompleted:
		s.eventBus.Publish(ctx, events.NewPaymentCompletedEvent(tx.BookingID, tx.GatewayRef, tx.Amount, tx.Currency))
	case StatusFailed:
		s.eventBus.Publish(ctx, events.NewPaymentFailedEvent(tx.BookingID, tx.GatewayRef, event.FailureReason))
	case StatusRefunded:
		s.eventBus.Publish(ctx, events.NewPaymentRefundedEvent(tx.BookingID, tx.GatewayRef, event.AmountRefunded))
	}
}

// Refund is the synchronous refund workflow: gateway first, ledger second.
// The refunded transition reuses ApplyGatewayEvent so the webhook and
// refund paths can never diverge.
func (s *Service) Refund(ctx context.Context, actorID int64, dto RefundDTO) (*RefundResponseDTO, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.txRepo.GetCompletedByBookingID(dto.BookingID)
	if err != nil {
		s.logger.Warn("refund rejected: no completed transaction",
			"booking_id", dto.BookingID,
			"actor_id", actorID)
		return nil, internal.ErrNoCompletedPayment
	}

	amount := dto.Amount
	if amount == 0 {
		amount = tx.Amount
	}
	if amount > tx.Amount {
		return nil, internal.NewValidationError("refund amount exceeds the transaction amount", internal.ErrCodeInvalidAmount)
	}

	refund, err := s.gateway.CreateRefund(ctx, paymentgateway.RefundRequest{
		GatewayRef: tx.GatewayRef,
		Amount:     amount,
	})
	if err != nil {
		// No local mutation on gateway failure: a refunded ledger row must
		// never exist without a gateway acknowledgement behind it.
		s.logger.Error("gateway refund failed",
			"booking_id", dto.BookingID,
			"gateway_ref", tx.GatewayRef,
			"error", err)
		return nil, err
	}

	if err := s.ApplyGatewayEvent(ctx, GatewayEvent{
		Type:           EventChargeRefunded,
		GatewayRef:     tx.GatewayRef,
		AmountRefunded: refund.AmountRefunded,
	}); err != nil {
		// The gateway has refunded but the ledger write failed; the
		// charge.refunded webhook will retry the same transition.
		s.logger.Error("ledger update failed after gateway refund",
			"booking_id", dto.BookingID,
			"gateway_ref", tx.GatewayRef,
			"error", err)
		return nil, err
	}

	s.auditor.Record(ctx, &actorID, AuditActionRefund, "booking", dto.BookingID, map[string]interface{}{
		"gateway_ref":     tx.GatewayRef,
		"amount_refunded": refund.AmountRefunded,
		"reason":          dto.Reason,
	})
	s.logger.Info("refund completed",
		"booking_id", dto.BookingID,
		"gateway_ref", tx.GatewayRef,
		"amount_refunded", refund.AmountRefunded,
		"actor_id", actorID)

	return &RefundResponseDTO{
		RefundID:       refund.ID,
		GatewayRef:     tx.GatewayRef,
		AmountRefunded: refund.AmountRefunded,
	}, nil
}

// GetTransactions lists the ledger rows for a booking, newest first.
func (s *Service) GetTransactions(bookingID int64) ([]*Transaction, error) {
	return s.txRepo.ListByBookingID(bookingID)
}

// RecordUnknownEvent logs and audits an unrecognized webhook event type.
func (s *Service) RecordUnknownEvent(ctx context.Context, eventType, gatewayRef string) {
	s.logger.Warn("unknown webhook event type acknowledged",
		"event_type", eventType,
		"gateway_ref", gatewayRef)
	s.auditor.Record(ctx, nil, AuditActionUnknownEvent, "webhook", 0, map[string]interface{}{
		"event_type":  eventType,
		"gateway_ref": gatewayRef,
	})
}
