package repository

import (
	"context"

	"campus-backend/internal/model"

	"gorm.io/gorm"
)

type ConfigRepository interface {
	// DeadlineDays returns the configured SLA for a kind, or the default when
	// no row exists.
	DeadlineDays(ctx context.Context, kind string) (int, error)
	Upsert(ctx context.Context, cfg *model.ApprovalConfig) error
	ListAll(ctx context.Context) ([]model.ApprovalConfig, error)
}

type configRepository struct {
	db *gorm.DB
}

func NewConfigRepository(db *gorm.DB) ConfigRepository {
	return &configRepository{db: db}
}

func (r *configRepository) DeadlineDays(ctx context.Context, kind string) (int, error) {
	var cfg model.ApprovalConfig
	err := GetDB(ctx, r.db).First(&cfg, "kind = ?", kind).Error
	if err == gorm.ErrRecordNotFound {
		return model.DefaultDeadlineDays, nil
	}
	if err != nil {
		return 0, err
	}
	if cfg.DeadlineDays <= 0 {
		return model.DefaultDeadlineDays, nil
	}
	return cfg.DeadlineDays, nil
}

func (r *configRepository) Upsert(ctx context.Context, cfg *model.ApprovalConfig) error {
	db := GetDB(ctx, r.db)
	var existing model.ApprovalConfig
	if err := db.First(&existing, "kind = ?", cfg.Kind).Error; err == nil {
		return db.Model(&existing).Update("deadline_days", cfg.DeadlineDays).Error
	}
	return db.Create(cfg).Error
}

func (r *configRepository) ListAll(ctx context.Context) ([]model.ApprovalConfig, error) {
	var configs []model.ApprovalConfig
	err := GetDB(ctx, r.db).Order("kind ASC").Find(&configs).Error
	return configs, err
}
