package user

import (
	"time"

	"github.com/mir-ashiq/Travelers-sub001/internal/auth"
	"github.com/mir-ashiq/Travelers-sub001/internal/core/common/validation"
)

type ChangeRoleDTO struct {
	Role string `json:"role"`
}

func (d ChangeRoleDTO) Validate() error {
	all := auth.AllRoles()
	roles := make([]string, 0, len(all))
	for _, r := range all {
		roles = append(roles, string(r))
	}
	v := validation.NewValidator()
	v.Field("role", d.Role).Required().OneOf(roles, "INVALID_ROLE")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ProfileDTO is the /users/me response: the account plus its resolved
// capability set, so clients can hide controls the guard would refuse.
type ProfileDTO struct {
	ID           int64             `json:"id"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	Role         auth.Role         `json:"role"`
	Capabilities []auth.Capability `json:"capabilities"`
	IsActive     bool              `json:"is_active"`
	CreatedAt    time.Time         `json:"created_at"`
}
