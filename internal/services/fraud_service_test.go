// internal/services/fraud_service_test.go
package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/shopvn-backend/internal/models"
)

// seedReferrals inserts count referrals for the affiliate, spaced a minute
// apart ending an hour ago, with distinct emails and non-adjacent phones.
func seedReferrals(t *testing.T, db *gorm.DB, affiliate *models.Affiliate, count int) {
	t.Helper()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < count; i++ {
		referral := &models.Referral{
			AffiliateID:   affiliate.ID,
			ReferredEmail: fmt.Sprintf("buyer%d@example.com", i),
			ReferredPhone: fmt.Sprintf("09%08d", i*10),
			Status:        models.ReferralStatusPending,
		}
		referral.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.Create(referral).Error)
	}
}

func TestFraudService_RateLimit(t *testing.T) {
	db := setupTestDB(t)
	service := NewFraudService(db)
	user := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, user, 10)

	seedReferrals(t, db, affiliate, 9)
	err := service.CheckReferral(affiliate.ID, "new@example.com", "", "")
	assert.NoError(t, err, "10th referral in the window is allowed")

	tenth := &models.Referral{
		AffiliateID:   affiliate.ID,
		ReferredEmail: "new@example.com",
		Status:        models.ReferralStatusPending,
	}
	tenth.CreatedAt = time.Now().Add(-time.Minute)
	require.NoError(t, db.Create(tenth).Error)

	err = service.CheckReferral(affiliate.ID, "another@example.com", "", "")
	assert.ErrorIs(t, err, ErrTooManyReferrals, "11th referral is rejected")
}

func TestFraudService_RateLimit_OldReferralsIgnored(t *testing.T) {
	db := setupTestDB(t)
	service := NewFraudService(db)
	user := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, user, 10)

	for i := 0; i < 10; i++ {
		referral := &models.Referral{
			AffiliateID:   affiliate.ID,
			ReferredEmail: fmt.Sprintf("old%d@example.com", i),
			Status:        models.ReferralStatusPending,
		}
		referral.CreatedAt = time.Now().Add(-25 * time.Hour)
		require.NoError(t, db.Create(referral).Error)
	}

	err := service.CheckReferral(affiliate.ID, "new@example.com", "", "")
	assert.NoError(t, err)
}

func TestFraudService_Timing(t *testing.T) {
	db := setupTestDB(t)
	service := NewFraudService(db)
	user := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, user, 10)

	base := time.Now().Add(-time.Hour)
	for i, gap := range []time.Duration{0, 3 * time.Second} {
		referral := &models.Referral{
			AffiliateID:   affiliate.ID,
			ReferredEmail: fmt.Sprintf("burst%d@example.com", i),
			Status:        models.ReferralStatusPending,
		}
		referral.CreatedAt = base.Add(gap)
		require.NoError(t, db.Create(referral).Error)
	}

	err := service.CheckReferral(affiliate.ID, "new@example.com", "", "")
	assert.ErrorIs(t, err, ErrSuspiciousTiming)
}

func TestFraudService_Timing_SpacedOutAllowed(t *testing.T) {
	db := setupTestDB(t)
	service := NewFraudService(db)
	user := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, user, 10)

	base := time.Now().Add(-time.Hour)
	for i, gap := range []time.Duration{0, 10 * time.Second} {
		referral := &models.Referral{
			AffiliateID:   affiliate.ID,
			ReferredEmail: fmt.Sprintf("paced%d@example.com", i),
			Status:        models.ReferralStatusPending,
		}
		referral.CreatedAt = base.Add(gap)
		require.NoError(t, db.Create(referral).Error)
	}

	err := service.CheckReferral(affiliate.ID, "new@example.com", "", "")
	assert.NoError(t, err)
}

func TestFraudService_SharedEmailPrefix(t *testing.T) {
	db := setupTestDB(t)
	service := NewFraudService(db)
	user := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, user, 10)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		referral := &models.Referral{
			AffiliateID:   affiliate.ID,
			ReferredEmail: fmt.Sprintf("john+%d@example.com", i),
			Status:        models.ReferralStatusPending,
		}
		referral.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.Create(referral).Error)
	}

	err := service.CheckReferral(affiliate.ID, "john+3@example.com", "", "")
	assert.ErrorIs(t, err, ErrSuspiciousPattern)

	err = service.CheckReferral(affiliate.ID, "mary@example.com", "", "")
	assert.NoError(t, err)
}

func TestFraudService_SequentialPhones(t *testing.T) {
	db := setupTestDB(t)
	service := NewFraudService(db)
	user := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, user, 10)

	referral := &models.Referral{
		AffiliateID:   affiliate.ID,
		ReferredEmail: "buyer@example.com",
		ReferredPhone: "0901234567",
		Status:        models.ReferralStatusPending,
	}
	referral.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(referral).Error)

	err := service.CheckReferral(affiliate.ID, "new@example.com", "0901234568", "")
	assert.ErrorIs(t, err, ErrSuspiciousPattern)

	// Formatting differences do not hide the sequence.
	err = service.CheckReferral(affiliate.ID, "new@example.com", "090 123-4568", "")
	assert.ErrorIs(t, err, ErrSuspiciousPattern)

	err = service.CheckReferral(affiliate.ID, "new@example.com", "0909999999", "")
	assert.NoError(t, err)
}

func TestFraudService_Network(t *testing.T) {
	db := setupTestDB(t)
	service := NewFraudService(db)
	user := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, user, 10)

	blocked := []string{"10.1.2.3", "172.16.0.1", "192.168.1.1", "127.0.0.1", "169.254.0.5"}
	for _, ip := range blocked {
		err := service.CheckReferral(affiliate.ID, "new@example.com", "", ip)
		assert.ErrorIs(t, err, ErrDisallowedNetwork, "ip %s", ip)
	}

	// Domestic, foreign, empty and garbage origins all pass.
	allowed := []string{"203.162.1.1", "8.8.8.8", "", "not-an-ip"}
	for _, ip := range allowed {
		err := service.CheckReferral(affiliate.ID, "new@example.com", "", ip)
		assert.NoError(t, err, "ip %q", ip)
	}
}
