package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
	EventTypePaymentRefunded  = "payment.refunded"
	EventTypeBookingConflict  = "booking.payment_conflict"
)

type PaymentCompletedEvent struct {
	BaseEvent
	BookingID  int64  `json:"booking_id"`
	GatewayRef string `json:"gateway_ref"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

func NewPaymentCompletedEvent(bookingID int64, gatewayRef string, amount int64, currency string) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"booking_id":  bookingID,
				"gateway_ref": gatewayRef,
				"amount":      amount,
				"currency":    currency,
			},
		},
		BookingID:  bookingID,
		GatewayRef: gatewayRef,
		Amount:     amount,
		Currency:   currency,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	BookingID     int64  `json:"booking_id"`
	GatewayRef    string `json:"gateway_ref"`
	FailureReason string `json:"failure_reason"`
}

func NewPaymentFailedEvent(bookingID int64, gatewayRef string, failureReason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"booking_id":     bookingID,
				"gateway_ref":    gatewayRef,
				"failure_reason": failureReason,
			},
		},
		BookingID:     bookingID,
		GatewayRef:    gatewayRef,
		FailureReason: failureReason,
	}
}

type PaymentRefundedEvent struct {
	BaseEvent
	BookingID    int64  `json:"booking_id"`
	GatewayRef   string `json:"gateway_ref"`
	RefundAmount int64  `json:"refund_amount"`
}

func NewPaymentRefundedEvent(bookingID int64, gatewayRef string, refundAmount int64) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentRefunded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"booking_id":    bookingID,
				"gateway_ref":   gatewayRef,
				"refund_amount": refundAmount,
			},
		},
		BookingID:    bookingID,
		GatewayRef:   gatewayRef,
		RefundAmount: refundAmount,
	}
}

// BookingConflictEvent marks a booking whose ledger and lifecycle disagree,
// e.g. a payment completed after an admin cancelled. Operators reconcile
// these manually.
type BookingConflictEvent struct {
	BaseEvent
	BookingID  int64  `json:"booking_id"`
	GatewayRef string `json:"gateway_ref"`
	Reason     string `json:"reason"`
}

func NewBookingConflictEvent(bookingID int64, gatewayRef, reason string) *BookingConflictEvent {
	return &BookingConflictEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBookingConflict,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"booking_id":  bookingID,
				"gateway_ref": gatewayRef,
				"reason":      reason,
			},
		},
		BookingID:  bookingID,
		GatewayRef: gatewayRef,
		Reason:     reason,
	}
}
