// internal/services/link_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/shopvn-backend/internal/cache"
	"github.com/javajoker/shopvn-backend/internal/config"
	"github.com/javajoker/shopvn-backend/internal/models"
	"github.com/javajoker/shopvn-backend/internal/utils"
)

var (
	ErrLinkNotFound    = errors.New("affiliate link not found")
	ErrLinkExpired     = errors.New("affiliate link has expired")
	ErrLinkUnavailable = errors.New("affiliate link is not available")
	ErrInvalidExpiry   = errors.New("expiry must be in the future")
)

type LinkService struct {
	db        *gorm.DB
	cfg       *config.Config
	catalog   ProductCatalog
	linkCache *cache.LinkCache // optional
	now       func() time.Time
}

type IssueLinkRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	ExpiresAt time.Time `json:"expires_at" validate:"required"`
	Campaign  string    `json:"campaign,omitempty" validate:"max=100"`
	Notes     string    `json:"notes,omitempty"`
}

func NewLinkService(db *gorm.DB, cfg *config.Config, catalog ProductCatalog, linkCache *cache.LinkCache) *LinkService {
	return &LinkService{
		db:        db,
		cfg:       cfg,
		catalog:   catalog,
		linkCache: linkCache,
		now:       time.Now,
	}
}

func (s *LinkService) IssueLink(affiliateID uuid.UUID, req *IssueLinkRequest) (*models.AffiliateLink, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var affiliate models.Affiliate
	if err := s.db.First(&affiliate, "id = ?", affiliateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAffiliateNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if affiliate.Status != models.AffiliateStatusActive {
		return nil, ErrAffiliateNotActive
	}

	if !req.ExpiresAt.After(s.now()) {
		return nil, ErrInvalidExpiry
	}

	product, err := s.catalog.ProductSnapshot(s.db, req.ProductID)
	if err != nil {
		return nil, err
	}

	code, err := s.generateUniqueLinkCode()
	if err != nil {
		return nil, err
	}

	link := &models.AffiliateLink{
		AffiliateID: affiliateID,
		ProductID:   product.ID,
		LinkCode:    code,
		Campaign:    req.Campaign,
		Notes:       req.Notes,
		ShortURL:    fmt.Sprintf("%s/%s", s.cfg.Affiliate.ShortLinkBaseURL, code),
		OriginalURL: fmt.Sprintf("%s/%s", s.cfg.Affiliate.ProductBaseURL, product.Slug),
		ExpiresAt:   req.ExpiresAt,
		Status:      models.LinkStatusActive,
	}

	if err := s.db.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create affiliate link: %w", err)
	}

	return link, nil
}

func (s *LinkService) generateUniqueLinkCode() (string, error) {
	for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
		code, err := utils.GenerateLinkCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate link code: %w", err)
		}

		var count int64
		if err := s.db.Model(&models.AffiliateLink{}).Where("link_code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("database error: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", ErrCodeGeneration
}

// resolveActive loads a link usable for clicks and conversions. A link read
// past its expiry is flipped to expired on the spot rather than waiting for
// the cleanup sweep.
func (s *LinkService) resolveActive(linkCode string) (*models.AffiliateLink, error) {
	var link models.AffiliateLink
	if err := s.db.Where("link_code = ?", linkCode).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if link.Status == models.LinkStatusActive && s.now().After(link.ExpiresAt) {
		if err := s.db.Model(&link).Update("status", models.LinkStatusExpired).Error; err != nil {
			return nil, fmt.Errorf("failed to expire link: %w", err)
		}
		return nil, ErrLinkExpired
	}

	if link.Status != models.LinkStatusActive {
		if link.Status == models.LinkStatusExpired {
			return nil, ErrLinkExpired
		}
		return nil, ErrLinkUnavailable
	}

	return &link, nil
}

func (s *LinkService) TrackClick(linkCode, ip string) error {
	link, err := s.resolveActive(linkCode)
	if err != nil {
		return err
	}

	// Counter increments happen at the storage layer; concurrent clicks must
	// not lose updates.
	if err := s.db.Model(link).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1)).Error; err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	if ip != "" && !link.ClickIPs.Contains(ip) && len(link.ClickIPs) < models.ClickIPLimit {
		ips := append(link.ClickIPs, ip)
		if err := s.db.Model(link).UpdateColumn("click_ips", ips).Error; err != nil {
			return fmt.Errorf("failed to record click ip: %w", err)
		}
	}

	return nil
}

// TrackConversion attributes an order to the link and returns the commission
// computed at the owning affiliate's current rate.
func (s *LinkService) TrackConversion(linkCode string, userID uuid.UUID, orderValue float64) (float64, error) {
	link, err := s.resolveActive(linkCode)
	if err != nil {
		return 0, err
	}

	var affiliate models.Affiliate
	if err := s.db.First(&affiliate, "id = ?", link.AffiliateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrAffiliateNotFound
		}
		return 0, fmt.Errorf("database error: %w", err)
	}

	commission := orderValue * affiliate.CommissionRate / 100

	if err := s.db.Model(link).UpdateColumns(map[string]interface{}{
		"conversion_count":        gorm.Expr("conversion_count + ?", 1),
		"total_commission_earned": gorm.Expr("total_commission_earned + ?", commission),
	}).Error; err != nil {
		return 0, fmt.Errorf("failed to record conversion: %w", err)
	}

	if !link.ConvertedUsers.Contains(userID.String()) {
		users := append(link.ConvertedUsers, userID.String())
		if err := s.db.Model(link).UpdateColumn("converted_users", users).Error; err != nil {
			return 0, fmt.Errorf("failed to record converted user: %w", err)
		}
	}

	return commission, nil
}

// Redirect resolves a link code to its target URL for the public redirect
// endpoint. Link consumers never see an internal failure; any error falls
// back to the configured default destination.
func (s *LinkService) Redirect(ctx context.Context, linkCode, ip string) string {
	target := ""

	if s.linkCache != nil {
		cached, err := s.linkCache.GetTarget(ctx, linkCode)
		if err != nil {
			logrus.WithError(err).WithField("link_code", linkCode).Warn("Link cache lookup failed")
		}
		target = cached
	}

	if target == "" {
		link, err := s.resolveActive(linkCode)
		if err != nil {
			logrus.WithError(err).WithField("link_code", linkCode).Info("Redirect fell back to default URL")
			return s.cfg.Affiliate.DefaultRedirectURL
		}
		target = link.OriginalURL

		if s.linkCache != nil {
			if err := s.linkCache.SetTarget(ctx, linkCode, target); err != nil {
				logrus.WithError(err).WithField("link_code", linkCode).Warn("Link cache store failed")
			}
		}
	}

	if err := s.TrackClick(linkCode, ip); err != nil {
		logrus.WithError(err).WithField("link_code", linkCode).Warn("Click tracking failed")
		if errors.Is(err, ErrLinkNotFound) || errors.Is(err, ErrLinkExpired) || errors.Is(err, ErrLinkUnavailable) {
			return s.cfg.Affiliate.DefaultRedirectURL
		}
	}

	return target
}

// DisableLink is an owner action; a disabled link accepts no further clicks
// or conversions.
func (s *LinkService) DisableLink(affiliateID, linkID uuid.UUID) (*models.AffiliateLink, error) {
	var link models.AffiliateLink
	if err := s.db.Where("id = ? AND affiliate_id = ?", linkID, affiliateID).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	link.Status = models.LinkStatusDisabled
	if err := s.db.Save(&link).Error; err != nil {
		return nil, fmt.Errorf("failed to disable link: %w", err)
	}

	if s.linkCache != nil {
		if err := s.linkCache.InvalidateTarget(context.Background(), link.LinkCode); err != nil {
			logrus.WithError(err).WithField("link_code", link.LinkCode).Warn("Link cache invalidation failed")
		}
	}

	return &link, nil
}

// CleanupExpired bulk-flips active links past their expiry. Scheduled from
// main; also callable through the admin API.
func (s *LinkService) CleanupExpired() (int64, error) {
	result := s.db.Model(&models.AffiliateLink{}).
		Where("status = ? AND expires_at < ?", models.LinkStatusActive, s.now()).
		Update("status", models.LinkStatusExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire links: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		logrus.WithField("count", result.RowsAffected).Info("Expired affiliate links cleaned up")
	}

	return result.RowsAffected, nil
}

func (s *LinkService) GetLinks(affiliateID uuid.UUID, params utils.PaginationParams) ([]models.AffiliateLink, int64, error) {
	query := s.db.Model(&models.AffiliateLink{}).Where("affiliate_id = ?", affiliateID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count links: %w", err)
	}

	allowedSortFields := []string{"created_at", "expires_at", "click_count", "conversion_count"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var links []models.AffiliateLink
	if err := query.Find(&links).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch links: %w", err)
	}

	return links, total, nil
}
