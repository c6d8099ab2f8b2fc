package postgres

import (
	"github.com/mir-ashiq/Travelers-sub001/internal/audit"
	auditDatamodel "github.com/mir-ashiq/Travelers-sub001/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

// AuditRepository implements audit.Repository using GORM.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(entry *audit.Entry) error {
	model := audit.ToDataModel(entry)
	if err := r.db.Create(model).Error; err != nil {
		return err
	}
	entry.ID = model.ID
	return nil
}

func (r *AuditRepository) List(params audit.ListParams) ([]*audit.Entry, error) {
	query := r.db.Model(&auditDatamodel.Entry{})
	if params.Action != "" {
		query = query.Where("action = ?", params.Action)
	}
	if params.SubjectType != "" {
		query = query.Where("subject_type = ?", params.SubjectType)
	}
	if params.SubjectID != 0 {
		query = query.Where("subject_id = ?", params.SubjectID)
	}
	if params.ActorID != nil {
		query = query.Where("actor_id = ?", *params.ActorID)
	}

	var models []*auditDatamodel.Entry
	err := query.Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return audit.FromDataModelSlice(models), nil
}
