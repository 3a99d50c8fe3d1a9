package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StudentStatus enum constants
const (
	StudentActive    = "ACTIVE"
	StudentSuspended = "SUSPENDED"
	StudentWithdrawn = "WITHDRAWN"
	StudentGraduated = "GRADUATED"
)

// BookingStatus enum constants
const (
	BookingRequested = "REQUESTED"
	BookingConfirmed = "CONFIRMED"
)

// DisciplineStatus enum constants
const (
	DisciplineActive  = "ACTIVE"
	DisciplineRevoked = "REVOKED"
)

// Student is the subject of status-change, scholarship and refund applications.
type Student struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentNo string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"student_no"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Status    string    `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScholarshipAward is written when a SCHOLARSHIP application reaches final approval.
type ScholarshipAward struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"student_id"`
	ApplicationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"application_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	AwardedAt     time.Time       `gorm:"not null" json:"awarded_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// RefundVoucher is written when a REFUND application reaches final approval.
// VoucherNo is generated sequentially per day under an advisory lock.
type RefundVoucher struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	VoucherNo     string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"voucher_no"`
	StudentID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"student_id"`
	ApplicationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"application_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Reason        string          `gorm:"type:text" json:"reason"`
	IssuedAt      time.Time       `gorm:"not null" json:"issued_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// RoomBooking is created REQUESTED when a BOOKING application is submitted and
// flipped to CONFIRMED by its final approval.
type RoomBooking struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index" json:"application_id"`
	RoomID        string    `gorm:"type:varchar(50);not null;index" json:"room_id"`
	BookedBy      uuid.UUID `gorm:"type:uuid;not null;index" json:"booked_by"`
	StartsAt      time.Time `gorm:"not null" json:"starts_at"`
	EndsAt        time.Time `gorm:"not null" json:"ends_at"`
	Status        string    `gorm:"type:varchar(20);not null;default:'REQUESTED';index" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DisciplineRecord is the target of a DISCIPLINE_APPEAL application; final
// approval of the appeal marks the record REVOKED.
type DisciplineRecord struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID  `gorm:"type:uuid;not null;index" json:"student_id"`
	Reason    string     `gorm:"type:text;not null" json:"reason"`
	Status    string     `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	IssuedAt  time.Time  `gorm:"not null" json:"issued_at"`
	RevokedAt *time.Time `json:"revoked_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
