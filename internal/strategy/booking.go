package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"campus-backend/internal/model"
	"campus-backend/internal/repository"

	"gorm.io/gorm"
)

// BookingPayload is the jsonb snapshot carried by a BOOKING application.
type BookingPayload struct {
	RoomID   string    `json:"room_id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// Booking reserves a classroom: a REQUESTED booking row is created at
// submission and confirmed by the two-level chain's final approval.
type Booking struct {
	db *gorm.DB
}

func NewBooking(db *gorm.DB) *Booking {
	return &Booking{db: db}
}

func (s *Booking) Kind() string  { return model.KindBooking }
func (s *Booking) MaxLevel() int { return 2 }

func (s *Booking) OnSubmit(ctx context.Context, app *model.Application) error {
	payload, err := parseBooking(app.Payload)
	if err != nil {
		return err
	}

	booking := model.RoomBooking{
		ApplicationID: app.ID,
		RoomID:        payload.RoomID,
		BookedBy:      app.SubmittedBy,
		StartsAt:      payload.StartsAt,
		EndsAt:        payload.EndsAt,
		Status:        model.BookingRequested,
	}
	if err := repository.GetDB(ctx, s.db).Create(&booking).Error; err != nil {
		return fmt.Errorf("failed to create room booking: %w", err)
	}
	return nil
}

func (s *Booking) OnFinalApprove(ctx context.Context, app *model.Application) error {
	res := repository.GetDB(ctx, s.db).
		Model(&model.RoomBooking{}).
		Where("application_id = ?", app.ID).
		Update("status", model.BookingConfirmed)
	if res.Error != nil {
		return fmt.Errorf("failed to confirm booking: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no booking found for application %s", app.ID)
	}
	return nil
}

func parseBooking(raw string) (*BookingPayload, error) {
	var payload BookingPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("invalid booking payload: %w", err)
	}
	if payload.RoomID == "" {
		return nil, fmt.Errorf("room_id is required")
	}
	if !payload.EndsAt.After(payload.StartsAt) {
		return nil, fmt.Errorf("ends_at must be after starts_at")
	}
	return &payload, nil
}
