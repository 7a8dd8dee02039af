// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/shopvn-backend/internal/config"
	"github.com/javajoker/shopvn-backend/internal/models"
)

var DB *gorm.DB

// newGormConfig builds the shared GORM settings. TranslateError maps
// unique-constraint violations to gorm.ErrDuplicatedKey, which the settlement
// and referral duplicate-recovery paths rely on.
func newGormConfig(logLevel string) *gorm.Config {
	level := logger.Info
	if logLevel == "silent" {
		level = logger.Silent
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}
}

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), newGormConfig(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.CartItem{},
		&models.Affiliate{},
		&models.AffiliateLink{},
		&models.Referral{},
		&models.CommissionTransaction{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_type_status ON users(user_type, status)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_status ON products(category_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Affiliate indexes
		"CREATE INDEX IF NOT EXISTS idx_affiliates_code_status ON affiliates(affiliate_code, status)",
		"CREATE INDEX IF NOT EXISTS idx_affiliate_links_affiliate_status ON affiliate_links(affiliate_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_affiliate_links_expiry ON affiliate_links(status, expires_at)",
		"CREATE INDEX IF NOT EXISTS idx_referrals_affiliate_created ON referrals(affiliate_id, created_at DESC)",

		// One pending order per user; concurrent create-or-merge requests fall
		// back to merging when the second insert hits this constraint.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_one_pending_per_user ON orders(user_id) WHERE status = 'pending' AND deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_affiliate_code ON orders(affiliate_code) WHERE affiliate_code <> ''",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order_product ON order_items(order_id, product_id)",

		// Settling the same order twice must not create a second ledger row.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_commission_transactions_order ON commission_transactions(order_id) WHERE deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_commission_transactions_affiliate ON commission_transactions(affiliate_id, created_at DESC)",

		// Payment indexes
		"CREATE INDEX IF NOT EXISTS idx_payments_order_status ON payments(order_id, status)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
