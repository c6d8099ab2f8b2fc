package payment

import (
	"encoding/json"

	"github.com/mir-ashiq/Travelers-sub001/internal"
	"github.com/mir-ashiq/Travelers-sub001/internal/core/common/validation"
)

// CreateIntentDTO is the public request to open a payment intent for a
// booking. Amount and currency come from the booking record, never from the
// caller.
type CreateIntentDTO struct {
	BookingID int64 `json:"booking_id"`
}

func (d CreateIntentDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("booking_id", d.BookingID).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type IntentResponseDTO struct {
	GatewayRef   string `json:"gateway_ref"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// RefundDTO requests a refund for a booking's completed payment. A zero
// Amount refunds the full transaction amount.
type RefundDTO struct {
	BookingID int64  `json:"booking_id"`
	Amount    int64  `json:"amount,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func (d RefundDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("booking_id", d.BookingID).Required()
	if d.Amount < 0 {
		return internal.NewValidationError("amount must not be negative", internal.ErrCodeInvalidAmount)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type RefundResponseDTO struct {
	RefundID       string `json:"refund_id"`
	GatewayRef     string `json:"gateway_ref"`
	AmountRefunded int64  `json:"amount_refunded"`
}

// webhookEnvelope is the wire shape of a gateway notification.
type webhookEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type webhookEventData struct {
	GatewayRef     string `json:"gateway_ref"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	AmountRefunded int64  `json:"amount_refunded"`
	FailureReason  string `json:"failure_reason"`
}
