package postgres

import (
	"errors"
	"fmt"

	"github.com/mir-ashiq/Travelers-sub001/internal/auth"
	userDatamodel "github.com/mir-ashiq/Travelers-sub001/internal/core/datamodel/user"
	"github.com/mir-ashiq/Travelers-sub001/internal/user"
	"gorm.io/gorm"
)

// UserRepository implements user.Repository using GORM.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(userID int64) (*user.User, error) {
	var model userDatamodel.User
	err := r.db.Where("id = ? AND is_active = true", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}
	return user.FromDataModel(&model), nil
}

func (r *UserRepository) List() ([]*user.User, error) {
	var models []*userDatamodel.User
	err := r.db.Order("id ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}
	return user.FromDataModelSlice(models), nil
}

func (r *UserRepository) UpdateRole(userID int64, role auth.Role) error {
	result := r.db.Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Update("role", string(role))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}
