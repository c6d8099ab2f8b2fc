package payment

import (
	"context"
	"encoding/json"
	"time"

	transactionDatamodel "github.com/mir-ashiq/Travelers-sub001/internal/core/datamodel/transaction"
)

// Gateway event types the webhook processor understands. Anything else is
// acknowledged and logged, never applied.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded  = "charge.refunded"
)

const (
	StatusPending   = transactionDatamodel.StatusPending
	StatusCompleted = transactionDatamodel.StatusCompleted
	StatusFailed    = transactionDatamodel.StatusFailed
	StatusRefunded  = transactionDatamodel.StatusRefunded
)

// Transaction is the domain view of one ledger row.
type Transaction struct {
	ID              int64           `json:"id"`
	BookingID       int64           `json:"booking_id"`
	GatewayRef      string          `json:"gateway_ref"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	RefundAmount    *int64          `json:"refund_amount,omitempty"`
	GatewayResponse json.RawMessage `json:"gateway_response,omitempty"`
	FailureReason   *string         `json:"failure_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// GatewayEvent is a parsed, signature-verified gateway notification. Both
// the webhook processor and the synchronous refund path feed these into the
// same transition routine.
type GatewayEvent struct {
	Type           string
	GatewayRef     string
	Amount         int64
	Currency       string
	AmountRefunded int64
	FailureReason  string
	Raw            json.RawMessage
}

// ImpliedStatus maps an event type to the transaction status it drives
// toward. Unknown types yield "".
func (e GatewayEvent) ImpliedStatus() string {
	switch e.Type {
	case EventIntentSucceeded:
		return StatusCompleted
	case EventIntentFailed:
		return StatusFailed
	case EventChargeRefunded:
		return StatusRefunded
	default:
		return ""
	}
}

// Repository is the transaction ledger store. Rows are only ever inserted
// and transitioned, never deleted.
type Repository interface {
	Create(tx *Transaction) error
	GetByGatewayRef(ref string) (*Transaction, error)
	GetCompletedByBookingID(bookingID int64) (*Transaction, error)
	ListByBookingID(bookingID int64) ([]*Transaction, error)
	UpdateFields(id int64, fields map[string]interface{}) error
	HasCompletedTransaction(bookingID int64) (bool, error)
}

// BookingStore is the slice of the booking repository the payment service
// writes through. Kept narrow so tests can fake it.
type BookingStore interface {
	GetByID(id int64) (*BookingRecord, error)
	UpdateFields(id int64, fields map[string]interface{}) error
}

// BookingRecord is the subset of booking columns the payment paths read.
type BookingRecord struct {
	ID            int64
	Status        string
	PaymentStatus string
	Amount        int64
	Currency      string
}

// Auditor records payment anomalies and refund actions.
type Auditor interface {
	Record(ctx context.Context, actorID *int64, action, subjectType string, subjectID int64, detail map[string]interface{})
}

func ToDataModel(t *Transaction) *transactionDatamodel.Transaction {
	return &transactionDatamodel.Transaction{
		ID:              t.ID,
		BookingID:       t.BookingID,
		GatewayRef:      t.GatewayRef,
		Amount:          t.Amount,
		Currency:        t.Currency,
		Status:          t.Status,
		RefundAmount:    t.RefundAmount,
		GatewayResponse: t.GatewayResponse,
		FailureReason:   t.FailureReason,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func FromDataModel(t *transactionDatamodel.Transaction) *Transaction {
	return &Transaction{
		ID:              t.ID,
		BookingID:       t.BookingID,
		GatewayRef:      t.GatewayRef,
		Amount:          t.Amount,
		Currency:        t.Currency,
		Status:          t.Status,
		RefundAmount:    t.RefundAmount,
		GatewayResponse: t.GatewayResponse,
		FailureReason:   t.FailureReason,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func FromDataModelSlice(txs []*transactionDatamodel.Transaction) []*Transaction {
	result := make([]*Transaction, len(txs))
	for i, t := range txs {
		result[i] = FromDataModel(t)
	}
	return result
}
