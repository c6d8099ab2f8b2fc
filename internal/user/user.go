package user

import (
	"time"

	"github.com/mir-ashiq/Travelers-sub001/internal/auth"
	userDatamodel "github.com/mir-ashiq/Travelers-sub001/internal/core/datamodel/user"
)

// User is the domain view of an operator account. PasswordHash never
// serializes.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Capabilities resolves the user's grants from the permission table. It is
// informational for API responses; enforcement happens in the guard.
func (u *User) Capabilities(table *auth.PermissionTable) []auth.Capability {
	return table.CapabilitiesOf(u.Role)
}

type Repository interface {
	GetByID(userID int64) (*User, error)
	List() ([]*User, error)
	UpdateRole(userID int64, role auth.Role) error
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         auth.Role(u.Role),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModelSlice(users []*userDatamodel.User) []*User {
	result := make([]*User, len(users))
	for i, u := range users {
		result[i] = FromDataModel(u)
	}
	return result
}
