package model

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationKind enum constants
const (
	KindStatusChange     = "STATUS_CHANGE"
	KindScholarship      = "SCHOLARSHIP"
	KindRefund           = "REFUND"
	KindBooking          = "BOOKING"
	KindDisciplineAppeal = "DISCIPLINE_APPEAL"
)

// ApplicationStatus enum constants
const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

// Application represents a pending multi-level approval for any campus request.
// One row per business request; the kind tag selects the approval chain length
// and the side effect executed on final approval.
type Application struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Kind              string     `gorm:"type:varchar(30);not null;index" json:"kind"`
	Title             string     `gorm:"type:varchar(255);not null" json:"title"`
	Payload           string     `gorm:"type:jsonb;not null" json:"payload"` // Full snapshot of the request payload
	Status            string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CurrentLevel      int        `gorm:"not null;default:1" json:"current_level"`
	MaxLevel          int        `gorm:"not null" json:"max_level"`
	CurrentApproverID *uuid.UUID `gorm:"type:uuid;index" json:"current_approver_id"` // null iff status is terminal or pool exhausted
	CurrentApprover   *User      `gorm:"foreignKey:CurrentApproverID" json:"current_approver,omitempty"`
	SubmittedBy       uuid.UUID  `gorm:"type:uuid;not null;index" json:"submitted_by"`
	Submitter         *User      `gorm:"foreignKey:SubmittedBy" json:"submitter,omitempty"`
	Deadline          time.Time  `gorm:"not null;index" json:"deadline"`
	IsOverdue         bool       `gorm:"not null;default:false" json:"is_overdue"`
	DecidedAt         *time.Time `json:"decided_at"`
	Version           int        `gorm:"not null;default:0" json:"-"` // optimistic concurrency guard
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsTerminal reports whether no further approval action may touch this row.
func (a *Application) IsTerminal() bool {
	return a.Status != StatusPending
}
