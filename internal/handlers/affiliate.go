// internal/handlers/affiliate.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/shopvn-backend/internal/i18n"
	"github.com/javajoker/shopvn-backend/internal/models"
	"github.com/javajoker/shopvn-backend/internal/services"
	"github.com/javajoker/shopvn-backend/internal/utils"
)

type AffiliateHandler struct {
	affiliateService  *services.AffiliateService
	linkService       *services.LinkService
	referralService   *services.ReferralService
	commissionService *services.CommissionService
}

func NewAffiliateHandler(
	affiliateService *services.AffiliateService,
	linkService *services.LinkService,
	referralService *services.ReferralService,
	commissionService *services.CommissionService,
) *AffiliateHandler {
	return &AffiliateHandler{
		affiliateService:  affiliateService,
		linkService:       linkService,
		referralService:   referralService,
		commissionService: commissionService,
	}
}

// POST /affiliates
func (h *AffiliateHandler) CreateAffiliate(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	affiliate, err := h.affiliateService.CreateAffiliate(userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyAffiliate) {
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAffiliateExists))
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyAffiliateCreated),
		"affiliate": affiliate,
	})
}

// GET /affiliates/dashboard
func (h *AffiliateHandler) GetDashboard(c *gin.Context) {
	affiliate, ok := h.currentAffiliate(c)
	if !ok {
		return
	}

	dashboard, err := h.affiliateService.GetDashboard(affiliate.ID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, dashboard)
}

// POST /affiliates/links
func (h *AffiliateHandler) IssueLink(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	affiliate, ok := h.currentAffiliate(c)
	if !ok {
		return
	}

	var req services.IssueLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	link, err := h.linkService.IssueLink(affiliate.ID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAffiliateNotActive):
			utils.UnprocessableResponse(c, i18n.T(lang, i18n.KeyAffiliateNotActive))
		case errors.Is(err, services.ErrInvalidExpiry):
			utils.BadRequestResponse(c, err.Error(), nil)
		case errors.Is(err, services.ErrProductNotFound):
			utils.NotFoundResponse(c, "product")
		case errors.Is(err, services.ErrCodeGeneration):
			utils.ConflictResponse(c, err.Error())
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLinkCreated),
		"link":    link,
	})
}

// GET /affiliates/links
func (h *AffiliateHandler) GetLinks(c *gin.Context) {
	affiliate, ok := h.currentAffiliate(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	links, total, err := h.linkService.GetLinks(affiliate.ID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(links, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /affiliates/links/:id/disable
func (h *AffiliateHandler) DisableLink(c *gin.Context) {
	affiliate, ok := h.currentAffiliate(c)
	if !ok {
		return
	}

	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid link ID", nil)
		return
	}

	link, err := h.linkService.DisableLink(affiliate.ID, linkID)
	if err != nil {
		if errors.Is(err, services.ErrLinkNotFound) {
			utils.NotFoundResponse(c, "link")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, link)
}

// GET /affiliates/commissions
func (h *AffiliateHandler) GetCommissionHistory(c *gin.Context) {
	affiliate, ok := h.currentAffiliate(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	transactions, total, err := h.commissionService.History(affiliate.ID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(transactions, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /affiliates/referrals
func (h *AffiliateHandler) GetReferrals(c *gin.Context) {
	affiliate, ok := h.currentAffiliate(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	referrals, total, err := h.referralService.GetReferrals(affiliate.ID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(referrals, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /referrals
func (h *AffiliateHandler) CreateReferral(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var body struct {
		AffiliateCode string `json:"affiliate_code" binding:"required"`
		services.CreateReferralRequest
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	referral, err := h.referralService.CreateReferral(body.AffiliateCode, &body.CreateReferralRequest, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAffiliateNotFound):
			utils.NotFoundResponse(c, "affiliate")
		case errors.Is(err, services.ErrAffiliateNotActive):
			utils.UnprocessableResponse(c, i18n.T(lang, i18n.KeyAffiliateNotActive))
		case errors.Is(err, services.ErrAlreadyReferred):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyReferralExists))
		case errors.Is(err, services.ErrTooManyReferrals),
			errors.Is(err, services.ErrSuspiciousTiming),
			errors.Is(err, services.ErrSuspiciousPattern),
			errors.Is(err, services.ErrDisallowedNetwork):
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyReferralRejected))
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyReferralCreated),
		"referral": referral,
	})
}

// POST /admin/affiliates/links/cleanup
func (h *AffiliateHandler) CleanupExpiredLinks(c *gin.Context) {
	count, err := h.linkService.CleanupExpired()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"expired": count})
}

// PUT /admin/commissions/:id/paid
func (h *AffiliateHandler) MarkCommissionPaid(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid commission transaction ID", nil)
		return
	}

	var body struct {
		PaymentMethod    string `json:"payment_method" binding:"required"`
		PaymentReference string `json:"payment_reference"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	transaction, err := h.commissionService.MarkPaid(transactionID, body.PaymentMethod, body.PaymentReference)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCommissionNotFound):
			utils.NotFoundResponse(c, "commission")
		case errors.Is(err, services.ErrInvalidTransition):
			utils.UnprocessableResponse(c, err.Error())
		default:
			utils.InternalErrorResponse(c, err.Error())
		}
		return
	}

	utils.SuccessResponse(c, transaction)
}

// PUT /admin/affiliates/:id/status
func (h *AffiliateHandler) UpdateAffiliateStatus(c *gin.Context) {
	affiliateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid affiliate ID", nil)
		return
	}

	var body struct {
		Status models.AffiliateStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	affiliate, err := h.affiliateService.UpdateStatus(affiliateID, body.Status)
	if err != nil {
		if errors.Is(err, services.ErrAffiliateNotFound) {
			utils.NotFoundResponse(c, "affiliate")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, affiliate)
}

func (h *AffiliateHandler) currentAffiliate(c *gin.Context) (*models.Affiliate, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}

	affiliate, err := h.affiliateService.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, services.ErrAffiliateNotFound) {
			utils.NotFoundResponse(c, "affiliate")
			return nil, false
		}
		utils.InternalErrorResponse(c, err.Error())
		return nil, false
	}

	return affiliate, true
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return uuid.Nil, false
	}

	return userID, true
}
