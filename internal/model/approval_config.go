package model

import "time"

// DefaultDeadlineDays applies when a kind has no ApprovalConfig row.
const DefaultDeadlineDays = 7

// ApprovalConfig stores the per-kind SLA used to compute approval deadlines.
type ApprovalConfig struct {
	Kind         string    `gorm:"type:varchar(30);primaryKey" json:"kind"`
	DeadlineDays int       `gorm:"not null" json:"deadline_days"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
