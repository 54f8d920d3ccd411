package database

import (
	"fmt"
	"time"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the schema plus the partial unique indexes that back the
// in-transaction checks for table assignment and the per-session draft order.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Reservation{},
		&models.ReservationDay{},
		&models.Staff{},
		&models.Feedback{},
		&models.DishFeedback{},
		&models.ActivityEntry{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// idx_reservation_table_slot only rejects a second booking of the exact
	// same date, time and table. Overlapping bookings at different times are
	// serialized by the reservation_days row lock, not by this index.
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reservation_table_slot
		ON reservations (reservation_date, reservation_time, table_number)
		WHERE status <> 'Cancelled'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_order_session_draft
		ON orders (session_key)
		WHERE status = 'Draft'`,
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}
