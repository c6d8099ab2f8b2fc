package postgres

import (
	"errors"

	"github.com/mir-ashiq/Travelers-sub001/internal"
	transactionDatamodel "github.com/mir-ashiq/Travelers-sub001/internal/core/datamodel/transaction"
	"github.com/mir-ashiq/Travelers-sub001/internal/payment"
	"gorm.io/gorm"
)

// TransactionRepository implements payment.Repository using GORM.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) payment.Repository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(tx *payment.Transaction) error {
	model := payment.ToDataModel(tx)
	if err := r.db.Create(model).Error; err != nil {
		return err
	}
	tx.ID = model.ID
	return nil
}

func (r *TransactionRepository) GetByGatewayRef(ref string) (*payment.Transaction, error) {
	var model transactionDatamodel.Transaction
	err := r.db.Where("gateway_ref = ?", ref).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTransactionNotFound
		}
		return nil, err
	}
	return payment.FromDataModel(&model), nil
}

// GetCompletedByBookingID returns the most recent completed transaction for
// the booking. Refunds charge against this row.
func (r *TransactionRepository) GetCompletedByBookingID(bookingID int64) (*payment.Transaction, error) {
	var model transactionDatamodel.Transaction
	err := r.db.Where("booking_id = ? AND status = ?", bookingID, transactionDatamodel.StatusCompleted).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrNoCompletedPayment
		}
		return nil, err
	}
	return payment.FromDataModel(&model), nil
}

func (r *TransactionRepository) ListByBookingID(bookingID int64) ([]*payment.Transaction, error) {
	var models []*transactionDatamodel.Transaction
	err := r.db.Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return payment.FromDataModelSlice(models), nil
}

// UpdateFields writes only the given columns. Callers hold the booking's
// lock while transitioning, so no other writer races this row.
func (r *TransactionRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	result := r.db.Model(&transactionDatamodel.Transaction{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) HasCompletedTransaction(bookingID int64) (bool, error) {
	var count int64
	err := r.db.Model(&transactionDatamodel.Transaction{}).
		Where("booking_id = ? AND status = ?", bookingID, transactionDatamodel.StatusCompleted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
