package model

import (
	"time"

	"github.com/google/uuid"
)

// ApproverAssignment places a user in the approver pool for one level.
// PendingCount tracks how many PENDING applications currently point at the
// user for that level; it is mutated only through atomic storage-layer
// increments and is floored at zero.
type ApproverAssignment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Level        int       `gorm:"not null;index:idx_approver_level_user,unique" json:"level"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index:idx_approver_level_user,unique" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PendingCount int       `gorm:"not null;default:0" json:"pending_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
