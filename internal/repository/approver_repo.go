package repository

import (
	"context"

	"campus-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApproverRepository interface {
	Upsert(ctx context.Context, assignment *model.ApproverAssignment) error
	Remove(ctx context.Context, level int, userID uuid.UUID) error
	FindByLevel(ctx context.Context, level int) ([]model.ApproverAssignment, error)
	FindByLevelAndUser(ctx context.Context, level int, userID uuid.UUID) (*model.ApproverAssignment, error)
	ListAll(ctx context.Context) ([]model.ApproverAssignment, error)
	// IncrementLoad / DecrementLoad mutate pending_count with a single SQL
	// expression so concurrent callers never lose updates. Decrement is
	// floored at zero.
	IncrementLoad(ctx context.Context, userID uuid.UUID, level int) error
	DecrementLoad(ctx context.Context, userID uuid.UUID, level int) error
}

type approverRepository struct {
	db *gorm.DB
}

func NewApproverRepository(db *gorm.DB) ApproverRepository {
	return &approverRepository{db: db}
}

func (r *approverRepository) Upsert(ctx context.Context, assignment *model.ApproverAssignment) error {
	existing, err := r.FindByLevelAndUser(ctx, assignment.Level, assignment.UserID)
	if err == nil {
		assignment.ID = existing.ID
		assignment.PendingCount = existing.PendingCount
		return GetDB(ctx, r.db).Save(assignment).Error
	}
	return GetDB(ctx, r.db).Create(assignment).Error
}

func (r *approverRepository) Remove(ctx context.Context, level int, userID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("level = ? AND user_id = ?", level, userID).
		Delete(&model.ApproverAssignment{}).Error
}

func (r *approverRepository) FindByLevel(ctx context.Context, level int) ([]model.ApproverAssignment, error) {
	var assignments []model.ApproverAssignment
	err := GetDB(ctx, r.db).
		Preload("User").
		Where("level = ?", level).
		Order("pending_count ASC, created_at ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *approverRepository) FindByLevelAndUser(ctx context.Context, level int, userID uuid.UUID) (*model.ApproverAssignment, error) {
	var assignment model.ApproverAssignment
	if err := GetDB(ctx, r.db).
		Where("level = ? AND user_id = ?", level, userID).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *approverRepository) ListAll(ctx context.Context) ([]model.ApproverAssignment, error) {
	var assignments []model.ApproverAssignment
	err := GetDB(ctx, r.db).
		Preload("User").
		Order("level ASC, pending_count ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *approverRepository) IncrementLoad(ctx context.Context, userID uuid.UUID, level int) error {
	return GetDB(ctx, r.db).
		Model(&model.ApproverAssignment{}).
		Where("user_id = ? AND level = ?", userID, level).
		Update("pending_count", gorm.Expr("pending_count + 1")).Error
}

func (r *approverRepository) DecrementLoad(ctx context.Context, userID uuid.UUID, level int) error {
	// Floor at zero: a stray decrement must never drive the counter negative.
	return GetDB(ctx, r.db).
		Model(&model.ApproverAssignment{}).
		Where("user_id = ? AND level = ? AND pending_count > 0", userID, level).
		Update("pending_count", gorm.Expr("pending_count - 1")).Error
}
