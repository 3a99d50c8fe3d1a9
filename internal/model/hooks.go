package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UUID primary keys are generated application-side so the same models run
// against Postgres in production and sqlite in tests.

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error               { ensureID(&u.ID); return nil }
func (t *RefreshToken) BeforeCreate(*gorm.DB) error       { ensureID(&t.ID); return nil }
func (a *Application) BeforeCreate(*gorm.DB) error        { ensureID(&a.ID); return nil }
func (r *ApprovalRecord) BeforeCreate(*gorm.DB) error     { ensureID(&r.ID); return nil }
func (a *ApproverAssignment) BeforeCreate(*gorm.DB) error { ensureID(&a.ID); return nil }
func (l *AuditLog) BeforeCreate(*gorm.DB) error           { ensureID(&l.ID); return nil }
func (n *Notification) BeforeCreate(*gorm.DB) error       { ensureID(&n.ID); return nil }
func (s *Student) BeforeCreate(*gorm.DB) error            { ensureID(&s.ID); return nil }
func (a *ScholarshipAward) BeforeCreate(*gorm.DB) error   { ensureID(&a.ID); return nil }
func (v *RefundVoucher) BeforeCreate(*gorm.DB) error      { ensureID(&v.ID); return nil }
func (b *RoomBooking) BeforeCreate(*gorm.DB) error        { ensureID(&b.ID); return nil }
func (d *DisciplineRecord) BeforeCreate(*gorm.DB) error   { ensureID(&d.ID); return nil }
