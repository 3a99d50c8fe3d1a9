package repository

import (
	"context"
	"time"

	"campus-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationFilter constrains listing queries.
type ApplicationFilter struct {
	Status      string
	Kind        string
	SubmittedBy *uuid.UUID
	ApproverID  *uuid.UUID
	Page        int
	Limit       int
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]model.Application, int64, error)
	// UpdateVersioned persists the given fields guarded by the optimistic
	// version column. Returns the number of rows affected: zero means a
	// concurrent writer got there first.
	UpdateVersioned(ctx context.Context, id uuid.UUID, version int, fields map[string]interface{}) (int64, error)
	// FindOverdue returns up to limit PENDING applications whose deadline has
	// passed, oldest deadline first.
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]model.Application, error)
	// FindDeadlineWithin returns up to limit PENDING applications whose
	// deadline falls inside (now, now+window).
	FindDeadlineWithin(ctx context.Context, now time.Time, window time.Duration, limit int) ([]model.Application, error)
	MarkOverdue(ctx context.Context, id uuid.UUID) error
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *model.Application) error {
	return GetDB(ctx, r.db).Create(app).Error
}

func (r *applicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := GetDB(ctx, r.db).First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := GetDB(ctx, r.db).
		Preload("Submitter").
		Preload("CurrentApprover").
		First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]model.Application, int64, error) {
	var apps []model.Application
	var total int64

	db := GetDB(ctx, r.db)
	applyFilter := func(q *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Kind != "" {
			q = q.Where("kind = ?", filter.Kind)
		}
		if filter.SubmittedBy != nil {
			q = q.Where("submitted_by = ?", *filter.SubmittedBy)
		}
		if filter.ApproverID != nil {
			q = q.Where("current_approver_id = ?", *filter.ApproverID)
		}
		return q
	}

	if err := applyFilter(db.Model(&model.Application{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := applyFilter(db.Preload("Submitter").Preload("CurrentApprover")).
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

func (r *applicationRepository) UpdateVersioned(ctx context.Context, id uuid.UUID, version int, fields map[string]interface{}) (int64, error) {
	fields["version"] = version + 1
	res := GetDB(ctx, r.db).
		Model(&model.Application{}).
		Where("id = ? AND version = ?", id, version).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *applicationRepository) FindOverdue(ctx context.Context, now time.Time, limit int) ([]model.Application, error) {
	var apps []model.Application
	err := GetDB(ctx, r.db).
		Where("status = ? AND deadline < ?", model.StatusPending, now).
		Order("deadline ASC").
		Limit(limit).
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) FindDeadlineWithin(ctx context.Context, now time.Time, window time.Duration, limit int) ([]model.Application, error) {
	var apps []model.Application
	err := GetDB(ctx, r.db).
		Where("status = ? AND deadline > ? AND deadline < ?", model.StatusPending, now, now.Add(window)).
		Order("deadline ASC").
		Limit(limit).
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) MarkOverdue(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).
		Model(&model.Application{}).
		Where("id = ?", id).
		Update("is_overdue", true).Error
}
