package database

import (
	"fmt"
	"time"

	"github.com/Eursukkul/stay-booking/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string, maxOpenConns int) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if maxOpenConns <= 0 {
		maxOpenConns = 25
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxOpenConns / 2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the schema and the partial unique indexes AutoMigrate cannot
// express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Booking{}, &models.Payment{}, &models.WebhookEvent{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// A provider payment id identifies at most one payment row and one checkout.
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_provider_payment_id
		ON payments (provider_payment_id)
		WHERE provider_payment_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_checkout_payment_id
		ON bookings (checkout_payment_id)
		WHERE checkout_payment_id IS NOT NULL`,
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
