// internal/services/referral_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/shopvn-backend/internal/models"
	"github.com/javajoker/shopvn-backend/internal/utils"
)

var ErrAlreadyReferred = errors.New("user has already been referred")

type ReferralService struct {
	db    *gorm.DB
	guard *FraudService
}

type CreateReferralRequest struct {
	ReferredUserID *uuid.UUID `json:"referred_user_id,omitempty"`
	Email          string     `json:"email" validate:"required,email"`
	Phone          string     `json:"phone,omitempty" validate:"phone_number"`
}

func NewReferralService(db *gorm.DB, guard *FraudService) *ReferralService {
	return &ReferralService{db: db, guard: guard}
}

// CreateReferral records that an affiliate referred a user. The fraud guard
// runs first; a referred user keeps their first attribution, later attempts
// by any affiliate are rejected.
func (s *ReferralService) CreateReferral(affiliateCode string, req *CreateReferralRequest, ip string) (*models.Referral, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var affiliate models.Affiliate
	if err := s.db.Where("affiliate_code = ?", affiliateCode).First(&affiliate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAffiliateNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if affiliate.Status != models.AffiliateStatusActive {
		return nil, ErrAffiliateNotActive
	}

	if err := s.guard.CheckReferral(affiliate.ID, req.Email, req.Phone, ip); err != nil {
		return nil, err
	}

	// First attribution wins, across all affiliates.
	var existing models.Referral
	if err := s.db.Where("referred_email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrAlreadyReferred
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	referral := &models.Referral{
		AffiliateID:    affiliate.ID,
		ReferredUserID: req.ReferredUserID,
		ReferredEmail:  req.Email,
		ReferredPhone:  req.Phone,
		Status:         models.ReferralStatusPending,
	}

	if err := s.db.Create(referral).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyReferred
		}
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}

	if err := s.db.Model(&affiliate).
		UpdateColumn("total_referrals", gorm.Expr("total_referrals + ?", 1)).Error; err != nil {
		return nil, fmt.Errorf("failed to update referral count: %w", err)
	}

	return referral, nil
}

// FindOrCreate returns the referral for (affiliate, email), creating a
// pending one when none exists. Used by commission settlement.
func (s *ReferralService) FindOrCreate(tx *gorm.DB, affiliateID uuid.UUID, email string) (*models.Referral, error) {
	if tx == nil {
		tx = s.db
	}

	var referral models.Referral
	err := tx.Where("affiliate_id = ? AND referred_email = ?", affiliateID, email).First(&referral).Error
	if err == nil {
		return &referral, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	referral = models.Referral{
		AffiliateID:   affiliateID,
		ReferredEmail: email,
		Status:        models.ReferralStatusPending,
	}
	if err := tx.Create(&referral).Error; err != nil {
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}

	return &referral, nil
}

func (s *ReferralService) GetReferrals(affiliateID uuid.UUID, params utils.PaginationParams) ([]models.Referral, int64, error) {
	query := s.db.Model(&models.Referral{}).Where("affiliate_id = ?", affiliateID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count referrals: %w", err)
	}

	allowedSortFields := []string{"created_at", "status", "total_order_value"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var referrals []models.Referral
	if err := query.Find(&referrals).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch referrals: %w", err)
	}

	return referrals, total, nil
}
