package booking

import "time"

// Status is the booking lifecycle state. Confirmed is only ever set by the
// webhook processor when a completed transaction exists, or by an audited
// admin override.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

type Booking struct {
	ID            int64     `gorm:"primaryKey"`
	CustomerName  string    `gorm:"column:customer_name;not null"`
	CustomerEmail string    `gorm:"column:customer_email;not null"`
	CustomerPhone string    `gorm:"column:customer_phone"`
	PackageRef    string    `gorm:"column:package_ref;not null"`
	Amount        int64     `gorm:"column:amount;not null"`
	Currency      string    `gorm:"column:currency;not null;default:USD"`
	Status        string    `gorm:"column:status;not null;default:pending"`
	PaymentStatus string    `gorm:"column:payment_status;not null;default:pending"`
	AssignedTo    *int64    `gorm:"column:assigned_to"`
	CreatedAt     time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt     time.Time `gorm:"column:updated_at;default:now()"`
}

func (Booking) TableName() string {
	return "bookings"
}

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCancelled
}

func ValidPaymentStatus(s string) bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid ||
		s == PaymentStatusFailed || s == PaymentStatusRefunded
}
