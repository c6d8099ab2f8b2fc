package audit

import (
	"encoding/json"
	"time"

	auditDatamodel "github.com/mir-ashiq/Travelers-sub001/internal/core/datamodel/audit"
)

// Entry is the domain view of one audit row. The trail is append-only;
// there is no update or delete path anywhere in this package.
type Entry struct {
	ID          int64           `json:"id"`
	ActorID     *int64          `json:"actor_id,omitempty"`
	ActorRole   string          `json:"actor_role,omitempty"`
	Action      string          `json:"action"`
	SubjectType string          `json:"subject_type"`
	SubjectID   int64           `json:"subject_id"`
	Detail      json.RawMessage `json:"detail,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Repository interface {
	Create(entry *Entry) error
	List(params ListParams) ([]*Entry, error)
}

type ListParams struct {
	Action      string
	SubjectType string
	SubjectID   int64
	ActorID     *int64
	Limit       int
	Offset      int
}

func ToDataModel(e *Entry) *auditDatamodel.Entry {
	return &auditDatamodel.Entry{
		ID:          e.ID,
		ActorID:     e.ActorID,
		ActorRole:   e.ActorRole,
		Action:      e.Action,
		SubjectType: e.SubjectType,
		SubjectID:   e.SubjectID,
		Detail:      e.Detail,
		CreatedAt:   e.CreatedAt,
	}
}

func FromDataModel(e *auditDatamodel.Entry) *Entry {
	return &Entry{
		ID:          e.ID,
		ActorID:     e.ActorID,
		ActorRole:   e.ActorRole,
		Action:      e.Action,
		SubjectType: e.SubjectType,
		SubjectID:   e.SubjectID,
		Detail:      e.Detail,
		CreatedAt:   e.CreatedAt,
	}
}

func FromDataModelSlice(entries []*auditDatamodel.Entry) []*Entry {
	result := make([]*Entry, len(entries))
	for i, e := range entries {
		result[i] = FromDataModel(e)
	}
	return result
}
