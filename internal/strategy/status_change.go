package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"campus-backend/internal/model"
	"campus-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusChangePayload is the jsonb snapshot carried by a STATUS_CHANGE
// application.
type StatusChangePayload struct {
	StudentID string `json:"student_id"`
	NewStatus string `json:"new_status"`
	Reason    string `json:"reason"`
}

// StatusChange moves a student between enrollment statuses (suspension,
// withdrawal, graduation) once the three-level chain approves.
type StatusChange struct {
	db *gorm.DB
}

func NewStatusChange(db *gorm.DB) *StatusChange {
	return &StatusChange{db: db}
}

func (s *StatusChange) Kind() string  { return model.KindStatusChange }
func (s *StatusChange) MaxLevel() int { return 3 }

func (s *StatusChange) OnSubmit(ctx context.Context, app *model.Application) error {
	payload, err := parseStatusChange(app.Payload)
	if err != nil {
		return err
	}

	var student model.Student
	if err := repository.GetDB(ctx, s.db).First(&student, "id = ?", payload.StudentID).Error; err != nil {
		return fmt.Errorf("student not found: %w", err)
	}
	return nil
}

func (s *StatusChange) OnFinalApprove(ctx context.Context, app *model.Application) error {
	payload, err := parseStatusChange(app.Payload)
	if err != nil {
		return err
	}

	db := repository.GetDB(ctx, s.db)
	var student model.Student
	if err := db.First(&student, "id = ?", payload.StudentID).Error; err != nil {
		return fmt.Errorf("student not found: %w", err)
	}

	if err := db.Model(&student).Update("status", payload.NewStatus).Error; err != nil {
		return fmt.Errorf("failed to update student status: %w", err)
	}
	return nil
}

func parseStatusChange(raw string) (*StatusChangePayload, error) {
	var payload StatusChangePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("invalid status change payload: %w", err)
	}
	if _, err := uuid.Parse(payload.StudentID); err != nil {
		return nil, fmt.Errorf("invalid student_id: %w", err)
	}
	switch payload.NewStatus {
	case model.StudentActive, model.StudentSuspended, model.StudentWithdrawn, model.StudentGraduated:
	default:
		return nil, fmt.Errorf("invalid new_status: %s", payload.NewStatus)
	}
	return &payload, nil
}
