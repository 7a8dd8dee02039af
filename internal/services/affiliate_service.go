// internal/services/affiliate_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/shopvn-backend/internal/models"
	"github.com/javajoker/shopvn-backend/internal/utils"
)

const codeGenerationAttempts = 10

var (
	ErrAffiliateNotFound  = errors.New("affiliate not found")
	ErrAlreadyAffiliate   = errors.New("user is already registered as an affiliate")
	ErrAffiliateNotActive = errors.New("affiliate account is not active")
	ErrCodeGeneration     = errors.New("could not generate a unique code")
)

type AffiliateService struct {
	db *gorm.DB
}

type CreateAffiliateRequest struct {
	CommissionRate  float64 `json:"commission_rate" validate:"required,commission_rate"`
	BankName        string  `json:"bank_name" validate:"required"`
	BankAccount     string  `json:"bank_account" validate:"required"`
	BankAccountName string  `json:"bank_account_name" validate:"required"`
}

func NewAffiliateService(db *gorm.DB) *AffiliateService {
	return &AffiliateService{db: db}
}

func (s *AffiliateService) CreateAffiliate(userID uuid.UUID, req *CreateAffiliateRequest) (*models.Affiliate, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// One affiliate account per user
	var existing models.Affiliate
	if err := s.db.Where("user_id = ?", userID).First(&existing).Error; err == nil {
		return nil, ErrAlreadyAffiliate
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	code, err := s.generateUniqueCode()
	if err != nil {
		return nil, err
	}

	affiliate := &models.Affiliate{
		UserID:          userID,
		AffiliateCode:   code,
		CommissionRate:  req.CommissionRate,
		BankName:        req.BankName,
		BankAccount:     req.BankAccount,
		BankAccountName: req.BankAccountName,
		Status:          models.AffiliateStatusActive,
	}

	if err := s.db.Create(affiliate).Error; err != nil {
		return nil, fmt.Errorf("failed to create affiliate: %w", err)
	}

	return affiliate, nil
}

// generateUniqueCode retries a bounded number of times on collision instead of
// looping forever; the 8-character space makes exhaustion effectively a
// storage-level failure.
func (s *AffiliateService) generateUniqueCode() (string, error) {
	for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
		code, err := utils.GenerateAffiliateCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate affiliate code: %w", err)
		}

		var count int64
		if err := s.db.Model(&models.Affiliate{}).Where("affiliate_code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("database error: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", ErrCodeGeneration
}

func (s *AffiliateService) GetByID(id uuid.UUID) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := s.db.First(&affiliate, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAffiliateNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &affiliate, nil
}

func (s *AffiliateService) GetByCode(code string) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := s.db.Where("affiliate_code = ?", code).First(&affiliate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAffiliateNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &affiliate, nil
}

func (s *AffiliateService) GetByUserID(userID uuid.UUID) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := s.db.Where("user_id = ?", userID).First(&affiliate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAffiliateNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &affiliate, nil
}

// UpdateStatus is an admin operation; affiliates are never hard-deleted.
func (s *AffiliateService) UpdateStatus(id uuid.UUID, status models.AffiliateStatus) (*models.Affiliate, error) {
	affiliate, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	affiliate.Status = status
	if err := s.db.Save(affiliate).Error; err != nil {
		return nil, fmt.Errorf("failed to update affiliate status: %w", err)
	}

	return affiliate, nil
}

func (s *AffiliateService) GetDashboard(id uuid.UUID) (map[string]interface{}, error) {
	affiliate, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	var linkCount, activeLinkCount, referralCount, approvedReferralCount int64
	s.db.Model(&models.AffiliateLink{}).Where("affiliate_id = ?", id).Count(&linkCount)
	s.db.Model(&models.AffiliateLink{}).Where("affiliate_id = ? AND status = ?", id, models.LinkStatusActive).Count(&activeLinkCount)
	s.db.Model(&models.Referral{}).Where("affiliate_id = ?", id).Count(&referralCount)
	s.db.Model(&models.Referral{}).Where("affiliate_id = ? AND status = ?", id, models.ReferralStatusApproved).Count(&approvedReferralCount)

	var pendingCommission float64
	s.db.Model(&models.CommissionTransaction{}).
		Where("affiliate_id = ? AND status = ?", id, models.CommissionStatusPending).
		Select("COALESCE(SUM(commission_amount), 0)").Scan(&pendingCommission)

	return map[string]interface{}{
		"affiliate_code":     affiliate.AffiliateCode,
		"commission_rate":    affiliate.CommissionRate,
		"status":             affiliate.Status,
		"total_earnings":     affiliate.TotalEarnings,
		"pending_commission": pendingCommission,
		"total_links":        linkCount,
		"active_links":       activeLinkCount,
		"total_referrals":    referralCount,
		"approved_referrals": approvedReferralCount,
	}, nil
}
