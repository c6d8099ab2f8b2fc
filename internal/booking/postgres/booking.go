package postgres

import (
	"errors"

	"github.com/mir-ashiq/Travelers-sub001/internal"
	"github.com/mir-ashiq/Travelers-sub001/internal/booking"
	bookingDatamodel "github.com/mir-ashiq/Travelers-sub001/internal/core/datamodel/booking"
	"gorm.io/gorm"
)

// BookingRepository implements booking.Repository using GORM.
type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) booking.Repository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(b *booking.Booking) error {
	model := booking.ToDataModel(b)
	if err := r.db.Create(model).Error; err != nil {
		return err
	}
	b.ID = model.ID
	return nil
}

func (r *BookingRepository) GetByID(id int64) (*booking.Booking, error) {
	var model bookingDatamodel.Booking
	err := r.db.Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrBookingNotFound
		}
		return nil, err
	}
	return booking.FromDataModel(&model), nil
}

func (r *BookingRepository) List(params booking.ListParams) ([]*booking.Booking, error) {
	query := r.db.Model(&bookingDatamodel.Booking{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.PaymentStatus != "" {
		query = query.Where("payment_status = ?", params.PaymentStatus)
	}
	if params.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *params.AssignedTo)
	}

	var models []*bookingDatamodel.Booking
	err := query.Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return booking.FromDataModelSlice(models), nil
}

// UpdateFields writes only the given columns. Callers hold the booking's
// lock, so the read-modify-write above this is safe from lost updates.
func (r *BookingRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	result := r.db.Model(&bookingDatamodel.Booking{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) Delete(id int64) error {
	result := r.db.Where("id = ?", id).Delete(&bookingDatamodel.Booking{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrBookingNotFound
	}
	return nil
}
