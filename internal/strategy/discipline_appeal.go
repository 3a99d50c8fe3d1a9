package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"campus-backend/internal/model"
	"campus-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DisciplineAppealPayload is the jsonb snapshot carried by a
// DISCIPLINE_APPEAL application.
type DisciplineAppealPayload struct {
	DisciplineRecordID string `json:"discipline_record_id"`
	Statement          string `json:"statement"`
}

// DisciplineAppeal revokes a discipline record once the three-level chain
// upholds the appeal.
type DisciplineAppeal struct {
	db *gorm.DB
}

func NewDisciplineAppeal(db *gorm.DB) *DisciplineAppeal {
	return &DisciplineAppeal{db: db}
}

func (s *DisciplineAppeal) Kind() string  { return model.KindDisciplineAppeal }
func (s *DisciplineAppeal) MaxLevel() int { return 3 }

func (s *DisciplineAppeal) OnSubmit(ctx context.Context, app *model.Application) error {
	payload, err := parseDisciplineAppeal(app.Payload)
	if err != nil {
		return err
	}

	var record model.DisciplineRecord
	if err := repository.GetDB(ctx, s.db).First(&record, "id = ?", payload.DisciplineRecordID).Error; err != nil {
		return fmt.Errorf("discipline record not found: %w", err)
	}
	if record.Status != model.DisciplineActive {
		return fmt.Errorf("discipline record is already %s", record.Status)
	}
	return nil
}

func (s *DisciplineAppeal) OnFinalApprove(ctx context.Context, app *model.Application) error {
	payload, err := parseDisciplineAppeal(app.Payload)
	if err != nil {
		return err
	}

	now := time.Now()
	res := repository.GetDB(ctx, s.db).
		Model(&model.DisciplineRecord{}).
		Where("id = ? AND status = ?", payload.DisciplineRecordID, model.DisciplineActive).
		Updates(map[string]interface{}{
			"status":     model.DisciplineRevoked,
			"revoked_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to revoke discipline record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("discipline record %s is not active", payload.DisciplineRecordID)
	}
	return nil
}

func parseDisciplineAppeal(raw string) (*DisciplineAppealPayload, error) {
	var payload DisciplineAppealPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("invalid discipline appeal payload: %w", err)
	}
	if _, err := uuid.Parse(payload.DisciplineRecordID); err != nil {
		return nil, fmt.Errorf("invalid discipline_record_id: %w", err)
	}
	return &payload, nil
}
