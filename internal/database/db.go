package database

import (
	"log"

	"campus-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate runs AutoMigrate for every model. Split out so tests can run it
// against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Student{},
		&model.ScholarshipAward{},
		&model.RefundVoucher{},
		&model.RoomBooking{},
		&model.DisciplineRecord{},
		&model.Application{},
		&model.ApprovalRecord{},
		&model.ApproverAssignment{},
		&model.ApprovalConfig{},
		&model.AuditLog{},
		&model.Notification{},
	)
}
