package audit

import (
	"encoding/json"
	"time"
)

// Entry is an append-only record of a privileged or anomalous action.
// ActorID is nil for system-originated entries (webhook anomalies).
type Entry struct {
	ID          int64           `gorm:"primaryKey"`
	ActorID     *int64          `gorm:"column:actor_id"`
	ActorRole   string          `gorm:"column:actor_role"`
	Action      string          `gorm:"column:action;not null;index"`
	SubjectType string          `gorm:"column:subject_type;not null"`
	SubjectID   int64           `gorm:"column:subject_id;not null;index"`
	Detail      json.RawMessage `gorm:"column:detail;type:jsonb"`
	CreatedAt   time.Time       `gorm:"column:created_at;default:now()"`
}

func (Entry) TableName() string {
	return "audit_logs"
}
