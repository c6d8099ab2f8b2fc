package transaction

import (
	"encoding/json"
	"time"
)

// Transaction statuses. A transaction is created pending when a payment
// intent is requested and only ever moves forward from there.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"
)

// Transaction is one payment attempt against a booking. GatewayRef is the
// processor-issued reference id and the sole deduplication key: two webhook
// deliveries carrying the same ref must never produce two rows.
type Transaction struct {
	ID              int64           `gorm:"primaryKey"`
	BookingID       int64           `gorm:"column:booking_id;not null;index"`
	GatewayRef      string          `gorm:"column:gateway_ref;not null;uniqueIndex"`
	Amount          int64           `gorm:"column:amount;not null"`
	Currency        string          `gorm:"column:currency;not null"`
	Status          string          `gorm:"column:status;not null;default:pending"`
	RefundAmount    *int64          `gorm:"column:refund_amount"`
	GatewayResponse json.RawMessage `gorm:"column:gateway_response;type:jsonb"`
	FailureReason   *string         `gorm:"column:failure_reason"`
	CreatedAt       time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;default:now()"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Terminal reports whether the status admits no further gateway transition.
// Refunded is reachable from completed, so completed is not terminal.
func Terminal(status string) bool {
	return status == StatusFailed || status == StatusRefunded
}
