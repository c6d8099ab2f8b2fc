package booking

import (
	"context"
	"time"

	bookingDatamodel "github.com/mir-ashiq/Travelers-sub001/internal/core/datamodel/booking"
)

// Booking is the domain view of a booking record. Status and PaymentStatus
// are deliberately separate axes: Status tracks the booking lifecycle,
// PaymentStatus mirrors the transaction ledger.
type Booking struct {
	ID            int64     `json:"id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	PackageRef    string    `json:"package_ref"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	AssignedTo    *int64    `json:"assigned_to,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const (
	StatusPending   = bookingDatamodel.StatusPending
	StatusConfirmed = bookingDatamodel.StatusConfirmed
	StatusCancelled = bookingDatamodel.StatusCancelled

	PaymentStatusPending  = bookingDatamodel.PaymentStatusPending
	PaymentStatusPaid     = bookingDatamodel.PaymentStatusPaid
	PaymentStatusFailed   = bookingDatamodel.PaymentStatusFailed
	PaymentStatusRefunded = bookingDatamodel.PaymentStatusRefunded
)

func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// Repository defines data access for bookings. Field-level updates take a
// column map so concurrent writers never clobber columns they did not touch.
type Repository interface {
	Create(b *Booking) error
	GetByID(id int64) (*Booking, error)
	List(params ListParams) ([]*Booking, error)
	UpdateFields(id int64, fields map[string]interface{}) error
	Delete(id int64) error
}

// LedgerReader is the slice of the payment ledger the booking service needs
// to cross-check manual payment-status edits.
type LedgerReader interface {
	HasCompletedTransaction(bookingID int64) (bool, error)
}

// Auditor records booking mutations that require an audit trail.
type Auditor interface {
	Record(ctx context.Context, actorID *int64, action, subjectType string, subjectID int64, detail map[string]interface{})
}

// ListParams filters and paginates booking listings.
type ListParams struct {
	Status        string
	PaymentStatus string
	AssignedTo    *int64
	Limit         int
	Offset        int
}

func ToDataModel(b *Booking) *bookingDatamodel.Booking {
	return &bookingDatamodel.Booking{
		ID:            b.ID,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
		PackageRef:    b.PackageRef,
		Amount:        b.Amount,
		Currency:      b.Currency,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		AssignedTo:    b.AssignedTo,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func FromDataModel(b *bookingDatamodel.Booking) *Booking {
	return &Booking{
		ID:            b.ID,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
		PackageRef:    b.PackageRef,
		Amount:        b.Amount,
		Currency:      b.Currency,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		AssignedTo:    b.AssignedTo,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func FromDataModelSlice(bookings []*bookingDatamodel.Booking) []*Booking {
	result := make([]*Booking, len(bookings))
	for i, b := range bookings {
		result[i] = FromDataModel(b)
	}
	return result
}
