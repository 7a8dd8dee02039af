// internal/services/affiliate_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/shopvn-backend/internal/models"
)

func TestAffiliateService_CreateAffiliate(t *testing.T) {
	db := setupTestDB(t)
	service := NewAffiliateService(db)
	user := createTestUser(t, db, "creator@example.com")

	affiliate, err := service.CreateAffiliate(user.ID, &CreateAffiliateRequest{
		CommissionRate:  8,
		BankName:        "Vietcombank",
		BankAccount:     "0123456789",
		BankAccountName: "NGUYEN VAN A",
	})
	require.NoError(t, err)

	assert.Len(t, affiliate.AffiliateCode, 8)
	assert.Equal(t, models.AffiliateStatusActive, affiliate.Status)
	assert.Equal(t, 8.0, affiliate.CommissionRate)
}

func TestAffiliateService_CreateAffiliate_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	service := NewAffiliateService(db)
	user := createTestUser(t, db, "creator@example.com")

	req := &CreateAffiliateRequest{
		CommissionRate:  8,
		BankName:        "Vietcombank",
		BankAccount:     "0123456789",
		BankAccountName: "NGUYEN VAN A",
	}

	_, err := service.CreateAffiliate(user.ID, req)
	require.NoError(t, err)

	_, err = service.CreateAffiliate(user.ID, req)
	assert.ErrorIs(t, err, ErrAlreadyAffiliate)
}

func TestAffiliateService_CreateAffiliate_InvalidRate(t *testing.T) {
	db := setupTestDB(t)
	service := NewAffiliateService(db)
	user := createTestUser(t, db, "creator@example.com")

	for _, rate := range []float64{0.5, 25} {
		_, err := service.CreateAffiliate(user.ID, &CreateAffiliateRequest{
			CommissionRate:  rate,
			BankName:        "Vietcombank",
			BankAccount:     "0123456789",
			BankAccountName: "NGUYEN VAN A",
		})
		assert.Error(t, err, "rate %v should be rejected", rate)
	}
}

func TestAffiliateService_GetByCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewAffiliateService(db)
	user := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, user, 10)

	found, err := service.GetByCode(affiliate.AffiliateCode)
	require.NoError(t, err)
	assert.Equal(t, affiliate.ID, found.ID)

	_, err = service.GetByCode("NOPE1234")
	assert.ErrorIs(t, err, ErrAffiliateNotFound)
}

func TestAffiliateService_GetDashboard(t *testing.T) {
	db := setupTestDB(t)
	service := NewAffiliateService(db)
	user := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, user, 10)
	product := createTestProduct(t, db, 100000, 0)

	createTestLink(t, db, affiliate, product, futureExpiry())
	expired := createTestLink(t, db, affiliate, product, futureExpiry())
	require.NoError(t, db.Model(expired).Update("status", models.LinkStatusExpired).Error)

	require.NoError(t, db.Create(&models.Referral{
		AffiliateID:   affiliate.ID,
		ReferredEmail: "buyer@example.com",
		Status:        models.ReferralStatusApproved,
	}).Error)

	require.NoError(t, db.Create(&models.CommissionTransaction{
		AffiliateID:      affiliate.ID,
		OrderID:          uuid.New(),
		OrderAmount:      500000,
		CommissionRate:   10,
		CommissionAmount: 50000,
		Status:           models.CommissionStatusPending,
	}).Error)

	dashboard, err := service.GetDashboard(affiliate.ID)
	require.NoError(t, err)

	assert.Equal(t, affiliate.AffiliateCode, dashboard["affiliate_code"])
	assert.Equal(t, int64(2), dashboard["total_links"])
	assert.Equal(t, int64(1), dashboard["active_links"])
	assert.Equal(t, int64(1), dashboard["total_referrals"])
	assert.Equal(t, int64(1), dashboard["approved_referrals"])
	assert.Equal(t, 50000.0, dashboard["pending_commission"])
}
