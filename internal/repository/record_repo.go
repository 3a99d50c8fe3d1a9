package repository

import (
	"context"

	"campus-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecordRepository is the append-only store behind the approval audit trail.
// There is deliberately no update or delete.
type RecordRepository interface {
	Append(ctx context.Context, rec *model.ApprovalRecord) error
	FindByApplication(ctx context.Context, applicationID uuid.UUID) ([]model.ApprovalRecord, error)
}

type recordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) Append(ctx context.Context, rec *model.ApprovalRecord) error {
	return GetDB(ctx, r.db).Create(rec).Error
}

func (r *recordRepository) FindByApplication(ctx context.Context, applicationID uuid.UUID) ([]model.ApprovalRecord, error) {
	var records []model.ApprovalRecord
	err := GetDB(ctx, r.db).
		Preload("Approver").
		Where("application_id = ?", applicationID).
		Order("decided_at ASC").
		Find(&records).Error
	return records, err
}
