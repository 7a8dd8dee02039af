// internal/services/referral_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/shopvn-backend/internal/models"
)

func TestReferralService_CreateReferral(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db, NewFraudService(db))
	user := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, user, 10)

	referral, err := service.CreateReferral(affiliate.AffiliateCode, &CreateReferralRequest{
		Email: "buyer@example.com",
		Phone: "0901234567",
	}, "203.162.1.1")
	require.NoError(t, err)

	assert.Equal(t, models.ReferralStatusPending, referral.Status)
	assert.Equal(t, affiliate.ID, referral.AffiliateID)

	var updated models.Affiliate
	require.NoError(t, db.First(&updated, "id = ?", affiliate.ID).Error)
	assert.Equal(t, int64(1), updated.TotalReferrals)
}

func TestReferralService_CreateReferral_FirstAttributionWins(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db, NewFraudService(db))
	first := createTestAffiliate(t, db, createTestUser(t, db, "first@example.com"), 10)
	second := createTestAffiliate(t, db, createTestUser(t, db, "second@example.com"), 10)

	req := &CreateReferralRequest{Email: "buyer@example.com"}

	_, err := service.CreateReferral(first.AffiliateCode, req, "")
	require.NoError(t, err)

	// The same affiliate, and any other affiliate, both bounce off.
	_, err = service.CreateReferral(first.AffiliateCode, req, "")
	assert.ErrorIs(t, err, ErrAlreadyReferred)

	_, err = service.CreateReferral(second.AffiliateCode, req, "")
	assert.ErrorIs(t, err, ErrAlreadyReferred)
}

func TestReferralService_CreateReferral_UnknownOrInactiveAffiliate(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db, NewFraudService(db))
	user := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, user, 10)

	req := &CreateReferralRequest{Email: "buyer@example.com"}

	_, err := service.CreateReferral("NOPE1234", req, "")
	assert.ErrorIs(t, err, ErrAffiliateNotFound)

	require.NoError(t, db.Model(affiliate).Update("status", models.AffiliateStatusSuspended).Error)
	_, err = service.CreateReferral(affiliate.AffiliateCode, req, "")
	assert.ErrorIs(t, err, ErrAffiliateNotActive)
}

func TestReferralService_CreateReferral_FraudRejected(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db, NewFraudService(db))
	user := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, user, 10)

	_, err := service.CreateReferral(affiliate.AffiliateCode, &CreateReferralRequest{
		Email: "buyer@example.com",
	}, "192.168.1.50")
	assert.ErrorIs(t, err, ErrDisallowedNetwork)

	// A rejected referral leaves no rows behind.
	var count int64
	require.NoError(t, db.Model(&models.Referral{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestReferralService_FindOrCreate(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db, NewFraudService(db))
	user := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, user, 10)

	created, err := service.FindOrCreate(nil, affiliate.ID, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.ReferralStatusPending, created.Status)

	again, err := service.FindOrCreate(nil, affiliate.ID, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
}
