// internal/services/commission_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/shopvn-backend/internal/models"
)

func TestRoundCommission(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{26200, 26000},  // 327,500 at 8%
		{26500, 27000},  // half rounds up
		{25999, 26000},
		{400, 0},
		{0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RoundCommission(tc.in), "RoundCommission(%v)", tc.in)
	}
}

func newSettledOrder(t *testing.T, db *gorm.DB, user *models.User, affiliateCode string, total float64) *models.Order {
	t.Helper()

	order := &models.Order{
		UserID:        user.ID,
		Status:        models.OrderStatusCompleted,
		TotalItems:    1,
		TotalAmount:   total,
		AffiliateCode: affiliateCode,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestCommissionService_Settle(t *testing.T) {
	db := setupTestDB(t)
	service := NewCommissionService(db, NewReferralService(db, NewFraudService(db)))
	creator := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, creator, 8)
	buyer := createTestUser(t, db, "buyer@example.com")
	order := newSettledOrder(t, db, buyer, affiliate.AffiliateCode, 327500)

	transaction, err := service.Settle(order)
	require.NoError(t, err)
	require.NotNil(t, transaction)

	assert.Equal(t, 26000.0, transaction.CommissionAmount)
	assert.Equal(t, 8.0, transaction.CommissionRate)
	assert.Equal(t, models.CommissionStatusPending, transaction.Status)
	require.NotNil(t, transaction.ReferralID)

	var updatedAffiliate models.Affiliate
	require.NoError(t, db.First(&updatedAffiliate, "id = ?", affiliate.ID).Error)
	assert.Equal(t, 26000.0, updatedAffiliate.TotalEarnings)

	var referral models.Referral
	require.NoError(t, db.First(&referral, "id = ?", *transaction.ReferralID).Error)
	assert.Equal(t, models.ReferralStatusApproved, referral.Status)
	assert.Equal(t, "buyer@example.com", referral.ReferredEmail)
	assert.Equal(t, 327500.0, referral.TotalOrderValue)
	assert.Equal(t, int64(1), referral.TotalOrders)

	var updatedOrder models.Order
	require.NoError(t, db.First(&updatedOrder, "id = ?", order.ID).Error)
	assert.Equal(t, 26000.0, updatedOrder.CommissionAmount)
	assert.Equal(t, models.CommissionStatusPending, updatedOrder.CommissionStatus)
}

func TestCommissionService_Settle_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	service := NewCommissionService(db, NewReferralService(db, NewFraudService(db)))
	creator := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, creator, 8)
	buyer := createTestUser(t, db, "buyer@example.com")
	order := newSettledOrder(t, db, buyer, affiliate.AffiliateCode, 500000)

	first, err := service.Settle(order)
	require.NoError(t, err)

	second, err := service.Settle(order)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.CommissionTransaction{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Earnings are credited exactly once.
	var updatedAffiliate models.Affiliate
	require.NoError(t, db.First(&updatedAffiliate, "id = ?", affiliate.ID).Error)
	assert.Equal(t, 40000.0, updatedAffiliate.TotalEarnings)
}

func TestCommissionService_Settle_SkipsUnattributedOrders(t *testing.T) {
	db := setupTestDB(t)
	service := NewCommissionService(db, NewReferralService(db, NewFraudService(db)))
	buyer := createTestUser(t, db, "buyer@example.com")

	noCode := newSettledOrder(t, db, buyer, "", 500000)
	transaction, err := service.Settle(noCode)
	require.NoError(t, err)
	assert.Nil(t, transaction)

	unknownCode := newSettledOrder(t, db, buyer, "GHOST123", 500000)
	transaction, err = service.Settle(unknownCode)
	require.NoError(t, err)
	assert.Nil(t, transaction)
}

func TestCommissionService_Settle_SkipsInactiveAffiliate(t *testing.T) {
	db := setupTestDB(t)
	service := NewCommissionService(db, NewReferralService(db, NewFraudService(db)))
	creator := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, creator, 8)
	require.NoError(t, db.Model(affiliate).Update("status", models.AffiliateStatusSuspended).Error)

	buyer := createTestUser(t, db, "buyer@example.com")
	order := newSettledOrder(t, db, buyer, affiliate.AffiliateCode, 500000)

	transaction, err := service.Settle(order)
	require.NoError(t, err)
	assert.Nil(t, transaction)
}

func TestCommissionService_Settle_ReusesExistingReferral(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db, NewFraudService(db))
	service := NewCommissionService(db, referrals)
	creator := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, creator, 10)
	buyer := createTestUser(t, db, "buyer@example.com")

	existing, err := referrals.CreateReferral(affiliate.AffiliateCode, &CreateReferralRequest{
		Email: "buyer@example.com",
	}, "203.162.1.1")
	require.NoError(t, err)

	order := newSettledOrder(t, db, buyer, affiliate.AffiliateCode, 200000)
	transaction, err := service.Settle(order)
	require.NoError(t, err)

	require.NotNil(t, transaction.ReferralID)
	assert.Equal(t, existing.ID, *transaction.ReferralID)

	var referralCount int64
	require.NoError(t, db.Model(&models.Referral{}).Count(&referralCount).Error)
	assert.Equal(t, int64(1), referralCount)
}

func TestCommissionService_MarkPaid(t *testing.T) {
	db := setupTestDB(t)
	service := NewCommissionService(db, NewReferralService(db, NewFraudService(db)))
	creator := createTestUser(t, db, "creator@example.com")
	affiliate := createTestAffiliate(t, db, creator, 8)
	buyer := createTestUser(t, db, "buyer@example.com")
	order := newSettledOrder(t, db, buyer, affiliate.AffiliateCode, 500000)

	transaction, err := service.Settle(order)
	require.NoError(t, err)

	paid, err := service.MarkPaid(transaction.ID, "bank_transfer", "FT2026083101")
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusPaid, paid.Status)
	assert.Equal(t, "bank_transfer", paid.PaymentMethod)
	require.NotNil(t, paid.PaidDate)

	_, err = service.MarkPaid(transaction.ID, "bank_transfer", "FT2026083102")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
