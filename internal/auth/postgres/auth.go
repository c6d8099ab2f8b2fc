package auth

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mir-ashiq/Travelers-sub001/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetPasswordForEmail(email string) (string, int64, error) {
	var passwordHash string
	var userID int64
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, fmt.Errorf("user not found")
		}
		return "", 0, err
	}
	return passwordHash, userID, nil
}

// GetPrincipal reads identity and role in one query. Inactive users are
// treated the same as missing ones so their tokens stop working at once.
func (r *Repository) GetPrincipal(userID int64) (*auth.Principal, error) {
	var p auth.Principal
	query := `SELECT id, email, name, role FROM users WHERE id = ? AND is_active = true`

	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&p.ID, &p.Email, &p.Name, &p.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	if !auth.ValidRole(p.Role) {
		return nil, fmt.Errorf("user %d has unknown role %q", userID, p.Role)
	}
	return &p, nil
}
