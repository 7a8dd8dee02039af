// internal/services/service_test.go
package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/shopvn-backend/internal/config"
	"github.com/javajoker/shopvn-backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(
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
	require.NoError(t, err)

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Affiliate: config.AffiliateConfig{
			ShortLinkBaseURL:   "https://shopvn.test/r",
			ProductBaseURL:     "https://shopvn.test/products",
			DefaultRedirectURL: "https://shopvn.test",
			RedirectCacheTTL:   300,
			CleanupSchedule:    "0 2 * * *",
		},
	}
}

var testUserCounter = 0

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	testUserCounter++
	user := &models.User{
		Username:     fmt.Sprintf("user%d", testUserCounter),
		Email:        email,
		PasswordHash: "hashed",
		UserType:     models.UserTypeCustomer,
		Status:       models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestAffiliate(t *testing.T, db *gorm.DB, user *models.User, rate float64) *models.Affiliate {
	t.Helper()

	affiliate := &models.Affiliate{
		UserID:          user.ID,
		AffiliateCode:   fmt.Sprintf("AFF%05d", testUserCounter),
		CommissionRate:  rate,
		BankName:        "Vietcombank",
		BankAccount:     "0123456789",
		BankAccountName: "NGUYEN VAN A",
		Status:          models.AffiliateStatusActive,
	}
	require.NoError(t, db.Create(affiliate).Error)
	return affiliate
}

var testProductCounter = 0

func createTestProduct(t *testing.T, db *gorm.DB, basePrice, discountPercent float64) *models.Product {
	t.Helper()

	testProductCounter++
	category := &models.Category{
		Name: "Electronics",
		Slug: fmt.Sprintf("electronics-%d", testProductCounter),
	}
	require.NoError(t, db.Create(category).Error)

	product := &models.Product{
		CategoryID:      category.ID,
		Name:            fmt.Sprintf("Product %d", testProductCounter),
		Slug:            fmt.Sprintf("product-%d", testProductCounter),
		BasePrice:       basePrice,
		DiscountPercent: discountPercent,
		Status:          models.ProductStatusActive,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func createTestLink(t *testing.T, db *gorm.DB, affiliate *models.Affiliate, product *models.Product, expiresAt time.Time) *models.AffiliateLink {
	t.Helper()

	link := &models.AffiliateLink{
		AffiliateID: affiliate.ID,
		ProductID:   product.ID,
		LinkCode:    fmt.Sprintf("%016X", uuid.New().ID()),
		ShortURL:    "https://shopvn.test/r/test",
		OriginalURL: "https://shopvn.test/products/" + product.Slug,
		ExpiresAt:   expiresAt,
		Status:      models.LinkStatusActive,
	}
	require.NoError(t, db.Create(link).Error)
	return link
}

func newTestLinkService(db *gorm.DB) *LinkService {
	return NewLinkService(db, testConfig(), NewCatalogService(db), nil)
}

func futureExpiry() time.Time {
	return time.Now().Add(30 * 24 * time.Hour)
}

// The uuid column carries no database-side default, so the schema must
// migrate cleanly on sqlite and the BeforeCreate hook must assign every ID.
func TestSetupAssignsUUIDs(t *testing.T) {
	db := setupTestDB(t)

	user := createTestUser(t, db, "hook@example.com")
	require.NotEqual(t, uuid.Nil, user.ID)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	require.Equal(t, user.ID, reloaded.ID)
}
