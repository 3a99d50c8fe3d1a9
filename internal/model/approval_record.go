package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalAction enum constants
const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
	ActionReturn  = "RETURN"
)

// ApprovalRecord is one immutable entry in an application's approval history.
// Records are append-only: a RETURN resets the application to level 1 but the
// records written before it stay queryable forever.
type ApprovalRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index" json:"application_id"`
	Level         int       `gorm:"not null" json:"level"`
	ApproverID    uuid.UUID `gorm:"type:uuid;not null;index" json:"approver_id"`
	Approver      *User     `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	Action        string    `gorm:"type:varchar(20);not null" json:"action"` // APPROVE, REJECT, RETURN
	Comment       string    `gorm:"type:text" json:"comment"`
	DecidedAt     time.Time `gorm:"not null;index" json:"decided_at"`
}
