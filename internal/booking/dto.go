package booking

import (
	"github.com/mir-ashiq/Travelers-sub001/internal"
	"github.com/mir-ashiq/Travelers-sub001/internal/core/common/validation"
	bookingDatamodel "github.com/mir-ashiq/Travelers-sub001/internal/core/datamodel/booking"
)

// AssignBookingDTO sets or clears the staff member a booking is assigned to.
// A nil AssignedTo clears the assignment.
type AssignBookingDTO struct {
	BookingID  int64  `json:"booking_id"`
	AssignedTo *int64 `json:"assigned_to"`
}

func (d AssignBookingDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("booking_id", d.BookingID).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateBookingDTO carries partial contact and package edits. Nil fields are
// left untouched.
type UpdateBookingDTO struct {
	CustomerName  *string `json:"customer_name,omitempty"`
	CustomerEmail *string `json:"customer_email,omitempty"`
	CustomerPhone *string `json:"customer_phone,omitempty"`
	PackageRef    *string `json:"package_ref,omitempty"`
}

func (d UpdateBookingDTO) Validate() error {
	if d.CustomerName == nil && d.CustomerEmail == nil && d.CustomerPhone == nil && d.PackageRef == nil {
		return internal.NewValidationError("no fields to update", internal.ErrCodeValidationFailed)
	}
	v := validation.NewValidator()
	if d.CustomerName != nil {
		v.Field("customer_name", *d.CustomerName).Required().MaxLength(200)
	}
	if d.CustomerEmail != nil {
		v.Field("customer_email", *d.CustomerEmail).Required().MaxLength(200)
	}
	if d.PackageRef != nil {
		v.Field("package_ref", *d.PackageRef).Required().MaxLength(100)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Fields converts the DTO to the column map passed to the repository.
func (d UpdateBookingDTO) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if d.CustomerName != nil {
		fields["customer_name"] = *d.CustomerName
	}
	if d.CustomerEmail != nil {
		fields["customer_email"] = *d.CustomerEmail
	}
	if d.CustomerPhone != nil {
		fields["customer_phone"] = *d.CustomerPhone
	}
	if d.PackageRef != nil {
		fields["package_ref"] = *d.PackageRef
	}
	return fields
}

// UpdatePaymentStatusDTO is the manual payment-status edit. Override must be
// set to force `paid` without a completed ledger row; the forced change is
// audited separately from gateway-driven transitions.
type UpdatePaymentStatusDTO struct {
	BookingID     int64  `json:"booking_id"`
	PaymentStatus string `json:"payment_status"`
	Override      bool   `json:"override,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

func (d UpdatePaymentStatusDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("booking_id", d.BookingID).Required()
	v.Field("payment_status", d.PaymentStatus).Required().OneOf([]string{
		bookingDatamodel.PaymentStatusPending,
		bookingDatamodel.PaymentStatusPaid,
		bookingDatamodel.PaymentStatusFailed,
		bookingDatamodel.PaymentStatusRefunded,
	}, internal.ErrCodeInvalidStatus)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// BulkStatusDTO applies one lifecycle status to many bookings. Confirming a
// booking whose ledger has no completed transaction requires Override, the
// same rule UpdatePaymentStatusDTO enforces for the payment axis.
type BulkStatusDTO struct {
	BookingIDs []int64 `json:"booking_ids"`
	Status     string  `json:"status"`
	Override   bool    `json:"override,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

func (d BulkStatusDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("booking_ids", d.BookingIDs).Required()
	v.Field("status", d.Status).Required().OneOf([]string{
		bookingDatamodel.StatusPending,
		bookingDatamodel.StatusConfirmed,
		bookingDatamodel.StatusCancelled,
	}, internal.ErrCodeInvalidStatus)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type BulkDeleteDTO struct {
	BookingIDs []int64 `json:"booking_ids"`
}

func (d BulkDeleteDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("booking_ids", d.BookingIDs).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// BulkResult reports the outcome for a single id inside a bulk operation.
// One failed id never aborts the rest.
type BulkResult struct {
	BookingID int64  `json:"booking_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

type BulkResponseDTO struct {
	Results   []BulkResult `json:"results"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}
