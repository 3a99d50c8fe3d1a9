package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"campus-backend/internal/model"
	"campus-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ScholarshipPayload is the jsonb snapshot carried by a SCHOLARSHIP
// application. Amount is a decimal string.
type ScholarshipPayload struct {
	StudentID string `json:"student_id"`
	Amount    string `json:"amount"`
}

// Scholarship awards a monetary scholarship after the three-level chain
// approves.
type Scholarship struct {
	db *gorm.DB
}

func NewScholarship(db *gorm.DB) *Scholarship {
	return &Scholarship{db: db}
}

func (s *Scholarship) Kind() string  { return model.KindScholarship }
func (s *Scholarship) MaxLevel() int { return 3 }

func (s *Scholarship) OnSubmit(ctx context.Context, app *model.Application) error {
	payload, _, err := parseScholarship(app.Payload)
	if err != nil {
		return err
	}

	var student model.Student
	if err := repository.GetDB(ctx, s.db).First(&student, "id = ?", payload.StudentID).Error; err != nil {
		return fmt.Errorf("student not found: %w", err)
	}
	return nil
}

func (s *Scholarship) OnFinalApprove(ctx context.Context, app *model.Application) error {
	payload, amount, err := parseScholarship(app.Payload)
	if err != nil {
		return err
	}

	studentID, _ := uuid.Parse(payload.StudentID)
	award := model.ScholarshipAward{
		StudentID:     studentID,
		ApplicationID: app.ID,
		Amount:        amount,
		AwardedAt:     time.Now(),
	}
	if err := repository.GetDB(ctx, s.db).Create(&award).Error; err != nil {
		return fmt.Errorf("failed to create scholarship award: %w", err)
	}
	return nil
}

func parseScholarship(raw string) (*ScholarshipPayload, decimal.Decimal, error) {
	var payload ScholarshipPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, decimal.Zero, fmt.Errorf("invalid scholarship payload: %w", err)
	}
	if _, err := uuid.Parse(payload.StudentID); err != nil {
		return nil, decimal.Zero, fmt.Errorf("invalid student_id: %w", err)
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, decimal.Zero, fmt.Errorf("amount must be positive")
	}
	return &payload, amount, nil
}
