package user

import (
	"context"
	"log/slog"

	"github.com/mir-ashiq/Travelers-sub001/internal"
	"github.com/mir-ashiq/Travelers-sub001/internal/auth"
)

const AuditActionChangeRole = "user.change_role"

type Auditor interface {
	Record(ctx context.Context, actorID *int64, action, subjectType string, subjectID int64, detail map[string]interface{})
}

type Service struct {
	repo    Repository
	table   *auth.PermissionTable
	auditor Auditor
	logger  *slog.Logger
}

func NewService(repo Repository, table *auth.PermissionTable, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		table:   table,
		auditor: auditor,
		logger:  logger,
	}
}

// Profile resolves the account plus its capability set.
func (s *Service) Profile(userID int64) (*ProfileDTO, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	return &ProfileDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		Capabilities: u.Capabilities(s.table),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
	}, nil
}

func (s *Service) List() ([]*User, error) {
	return s.repo.List()
}

// ChangeRole moves a user to a different role. The new role takes effect on
// the target's next request: the guard reads the role from the database,
// not from outstanding tokens.
func (s *Service) ChangeRole(ctx context.Context, actorID int64, targetID int64, dto ChangeRoleDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	target, err := s.repo.GetByID(targetID)
	if err != nil {
		return nil, err
	}

	newRole := auth.Role(dto.Role)
	if target.Role == newRole {
		return target, nil
	}

	if err := s.repo.UpdateRole(targetID, newRole); err != nil {
		s.logger.Error("role update failed", "target_id", targetID, "role", dto.Role, "error", err)
		return nil, internal.NewStorageError("failed to update role", err)
	}

	s.auditor.Record(ctx, &actorID, AuditActionChangeRole, "user", targetID, map[string]interface{}{
		"previous_role": string(target.Role),
		"new_role":      dto.Role,
	})
	s.logger.Info("user role changed",
		"target_id", targetID,
		"previous_role", target.Role,
		"new_role", dto.Role,
		"actor_id", actorID)

	target.Role = newRole
	return target, nil
}
