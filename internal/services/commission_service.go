// internal/services/commission_service.go
package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/shopvn-backend/internal/database"
	"github.com/javajoker/shopvn-backend/internal/models"
	"github.com/javajoker/shopvn-backend/internal/utils"
)

var ErrCommissionNotFound = errors.New("commission transaction not found")

// Commission amounts are rounded to the nearest thousand dong.
const commissionRoundingUnit = 1000

type CommissionService struct {
	db        *gorm.DB
	referrals *ReferralService
}

func NewCommissionService(db *gorm.DB, referrals *ReferralService) *CommissionService {
	return &CommissionService{db: db, referrals: referrals}
}

func RoundCommission(amount float64) float64 {
	return math.Round(amount/commissionRoundingUnit) * commissionRoundingUnit
}

// Settle computes and records the commission for a qualifying order. Returns
// (nil, nil) when the order carries no affiliate code or the affiliate cannot
// earn; returns the existing transaction when the order was already settled.
// The ledger row, the affiliate earnings increment and the referral update
// commit as one unit.
func (s *CommissionService) Settle(order *models.Order) (*models.CommissionTransaction, error) {
	if order.AffiliateCode == "" {
		return nil, nil
	}

	var affiliate models.Affiliate
	if err := s.db.Where("affiliate_code = ?", order.AffiliateCode).First(&affiliate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithField("affiliate_code", order.AffiliateCode).Info("Order references unknown affiliate code, skipping settlement")
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if affiliate.Status != models.AffiliateStatusActive {
		logrus.WithFields(logrus.Fields{
			"affiliate_id": affiliate.ID,
			"status":       affiliate.Status,
		}).Info("Affiliate not active, skipping settlement")
		return nil, nil
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", order.UserID).Error; err != nil {
		return nil, fmt.Errorf("failed to load order owner: %w", err)
	}

	commission := RoundCommission(order.TotalAmount * affiliate.CommissionRate / 100)

	var transaction *models.CommissionTransaction
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		// One ledger row per order. Check inside the transaction; the unique
		// index on order_id backstops concurrent settlements.
		var existing models.CommissionTransaction
		err := tx.Where("order_id = ?", order.ID).First(&existing).Error
		if err == nil {
			transaction = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("database error: %w", err)
		}

		referral, err := s.referrals.FindOrCreate(tx, affiliate.ID, user.Email)
		if err != nil {
			return err
		}

		transaction = &models.CommissionTransaction{
			AffiliateID:      affiliate.ID,
			OrderID:          order.ID,
			ReferralID:       &referral.ID,
			OrderAmount:      order.TotalAmount,
			CommissionRate:   affiliate.CommissionRate,
			CommissionAmount: commission,
			Status:           models.CommissionStatusPending,
		}
		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create commission transaction: %w", err)
		}

		if err := tx.Model(&models.Affiliate{}).Where("id = ?", affiliate.ID).
			UpdateColumn("total_earnings", gorm.Expr("total_earnings + ?", commission)).Error; err != nil {
			return fmt.Errorf("failed to update affiliate earnings: %w", err)
		}

		// A referral is approved the moment it produces revenue.
		if err := tx.Model(&models.Referral{}).Where("id = ?", referral.ID).
			UpdateColumns(map[string]interface{}{
				"commission_earned": gorm.Expr("commission_earned + ?", commission),
				"total_order_value": gorm.Expr("total_order_value + ?", order.TotalAmount),
				"total_orders":      gorm.Expr("total_orders + ?", 1),
				"status":            models.ReferralStatusApproved,
			}).Error; err != nil {
			return fmt.Errorf("failed to update referral: %w", err)
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			UpdateColumns(map[string]interface{}{
				"commission_amount": commission,
				"commission_status": models.CommissionStatusPending,
			}).Error; err != nil {
			return fmt.Errorf("failed to update order commission: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race; the other settlement's row is authoritative.
			var existing models.CommissionTransaction
			if lookupErr := s.db.Where("order_id = ?", order.ID).First(&existing).Error; lookupErr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}

	return transaction, nil
}

func (s *CommissionService) History(affiliateID uuid.UUID, params utils.PaginationParams) ([]models.CommissionTransaction, int64, error) {
	query := s.db.Model(&models.CommissionTransaction{}).
		Where("affiliate_id = ?", affiliateID).
		Preload("Order").Preload("Referral")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count commission transactions: %w", err)
	}

	allowedSortFields := []string{"created_at", "commission_amount", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var transactions []models.CommissionTransaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch commission transactions: %w", err)
	}

	return transactions, total, nil
}

// MarkPaid records the payout of a pending commission. Ledger rows are
// immutable apart from status and payment metadata.
func (s *CommissionService) MarkPaid(id uuid.UUID, method, reference string) (*models.CommissionTransaction, error) {
	var transaction models.CommissionTransaction
	if err := s.db.First(&transaction, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommissionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if transaction.Status != models.CommissionStatusPending {
		return nil, fmt.Errorf("commission transaction is %s: %w", transaction.Status, ErrInvalidTransition)
	}

	now := time.Now()
	transaction.Status = models.CommissionStatusPaid
	transaction.PaymentMethod = method
	transaction.PaymentReference = reference
	transaction.PaidDate = &now

	if err := s.db.Save(&transaction).Error; err != nil {
		return nil, fmt.Errorf("failed to update commission transaction: %w", err)
	}

	return &transaction, nil
}
