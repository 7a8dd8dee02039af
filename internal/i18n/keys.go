// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// Affiliates
	KeyAffiliateCreated   = "affiliate.created"
	KeyAffiliateNotFound  = "affiliate.not_found"
	KeyAffiliateExists    = "affiliate.exists"
	KeyAffiliateNotActive = "affiliate.not_active"

	// Affiliate links
	KeyLinkCreated     = "link.created"
	KeyLinkNotFound    = "link.not_found"
	KeyLinkExpired     = "link.expired"
	KeyLinkUnavailable = "link.unavailable"

	// Referrals
	KeyReferralCreated  = "referral.created"
	KeyReferralExists   = "referral.exists"
	KeyReferralRejected = "referral.rejected"

	// Orders
	KeyOrderCreated           = "order.created"
	KeyOrderNotFound          = "order.not_found"
	KeyOrderEmptyCart         = "order.empty_cart"
	KeyOrderInvalidTransition = "order.invalid_transition"

	// Payments
	KeyPaymentCreated           = "payment.created"
	KeyPaymentNotFound          = "payment.not_found"
	KeyPaymentInvalidTransition = "payment.invalid_transition"

	// Products
	KeyProductNotFound = "product.not_found"
)
