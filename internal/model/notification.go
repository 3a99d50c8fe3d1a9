package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification targets either a single user (TargetUserID set) or everyone
// holding TargetRole. Delivery over the websocket hub is best-effort; the row
// is the durable copy.
type Notification struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TargetUserID  *uuid.UUID `gorm:"type:uuid;index" json:"target_user_id"`
	TargetRole    string     `gorm:"type:varchar(50);index" json:"target_role"`
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	Body          string     `gorm:"type:text" json:"body"`
	ReferenceKind string     `gorm:"type:varchar(30);index" json:"reference_kind"`
	ReferenceID   string     `gorm:"type:varchar(50);index" json:"reference_id"`
	IsRead        bool       `gorm:"not null;default:false" json:"is_read"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
}
