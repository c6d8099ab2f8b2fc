package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mir-ashiq/Travelers-sub001/internal/auth"
)

// Action written for authorization denials recorded through the guard.
const ActionAccessDenied = "authorization.denied"

// Service writes and reads the audit trail. Writes never fail the caller:
// a booking mutation must not roll back because the audit insert hiccuped,
// so failures are logged and dropped.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends one entry. ActorID is nil for system-originated actions
// such as webhook anomalies.
func (s *Service) Record(ctx context.Context, actorID *int64, action, subjectType string, subjectID int64, detail map[string]interface{}) {
	var raw json.RawMessage
	if len(detail) > 0 {
		encoded, err := json.Marshal(detail)
		if err != nil {
			s.logger.Error("failed to encode audit detail", "action", action, "error", err)
		} else {
			raw = encoded
		}
	}

	entry := &Entry{
		ActorID:     actorID,
		Action:      action,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Detail:      raw,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Create(entry); err != nil {
		s.logger.Error("failed to write audit entry",
			"action", action,
			"subject_type", subjectType,
			"subject_id", subjectID,
			"error", err)
	}
}

// RecordDenial satisfies the guard's recorder. The required capabilities go
// into the detail payload, never into any user-facing response.
func (s *Service) RecordDenial(ctx context.Context, principal *auth.Principal, required []auth.Capability) {
	caps := make([]string, len(required))
	for i, c := range required {
		caps[i] = string(c)
	}

	detail := map[string]interface{}{"required_capabilities": caps}
	var actorID *int64
	if principal != nil {
		actorID = &principal.ID
		detail["role"] = string(principal.Role)
	}
	s.Record(ctx, actorID, ActionAccessDenied, "authorization", 0, detail)
}

// List returns entries newest first.
func (s *Service) List(params ListParams) ([]*Entry, error) {
	if params.Limit <= 0 || params.Limit > 200 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	return s.repo.List(params)
}
