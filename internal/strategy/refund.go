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

// RefundPayload is the jsonb snapshot carried by a REFUND application.
type RefundPayload struct {
	StudentID string `json:"student_id"`
	Amount    string `json:"amount"`
	Reason    string `json:"reason"`
}

// Refund issues a tuition refund voucher after the two-level chain approves.
type Refund struct {
	db *gorm.DB
}

func NewRefund(db *gorm.DB) *Refund {
	return &Refund{db: db}
}

func (s *Refund) Kind() string  { return model.KindRefund }
func (s *Refund) MaxLevel() int { return 2 }

func (s *Refund) OnSubmit(ctx context.Context, app *model.Application) error {
	payload, _, err := parseRefund(app.Payload)
	if err != nil {
		return err
	}

	var student model.Student
	if err := repository.GetDB(ctx, s.db).First(&student, "id = ?", payload.StudentID).Error; err != nil {
		return fmt.Errorf("student not found: %w", err)
	}
	return nil
}

func (s *Refund) OnFinalApprove(ctx context.Context, app *model.Application) error {
	payload, amount, err := parseRefund(app.Payload)
	if err != nil {
		return err
	}

	db := repository.GetDB(ctx, s.db)
	voucherNo, err := generateVoucherNo(db)
	if err != nil {
		return fmt.Errorf("failed to generate voucher number: %w", err)
	}

	studentID, _ := uuid.Parse(payload.StudentID)
	voucher := model.RefundVoucher{
		VoucherNo:     voucherNo,
		StudentID:     studentID,
		ApplicationID: app.ID,
		Amount:        amount,
		Reason:        payload.Reason,
		IssuedAt:      time.Now(),
	}
	if err := db.Create(&voucher).Error; err != nil {
		return fmt.Errorf("failed to create refund voucher: %w", err)
	}
	return nil
}

// generateVoucherNo produces RFD-YYYYMMDD-NNNNN, serialized per day via an
// advisory lock so concurrent approvals cannot mint the same number.
func generateVoucherNo(db *gorm.DB) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "RFD-" + today + "-"

	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := db.Model(&model.RefundVoucher{}).
		Where("voucher_no LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func parseRefund(raw string) (*RefundPayload, decimal.Decimal, error) {
	var payload RefundPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, decimal.Zero, fmt.Errorf("invalid refund payload: %w", err)
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
