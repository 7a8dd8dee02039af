// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/shopvn-backend/internal/cache"
	"github.com/javajoker/shopvn-backend/internal/config"
	"github.com/javajoker/shopvn-backend/internal/handlers"
	"github.com/javajoker/shopvn-backend/internal/middleware"
	"github.com/javajoker/shopvn-backend/internal/services"
	"github.com/javajoker/shopvn-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config, linkCache *cache.LinkCache) *gin.Engine {
	// Initialize services
	catalogService := services.NewCatalogService(db)
	cartService := services.NewCartService(db)
	affiliateService := services.NewAffiliateService(db)
	linkService := services.NewLinkService(db, cfg, catalogService, linkCache)
	fraudService := services.NewFraudService(db)
	referralService := services.NewReferralService(db, fraudService)
	commissionService := services.NewCommissionService(db, referralService)
	orderService := services.NewOrderService(db, catalogService, cartService, linkService, commissionService)
	paymentService := services.NewPaymentService(db)

	// Initialize handlers
	affiliateHandler := handlers.NewAffiliateHandler(affiliateService, linkService, referralService, commissionService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	redirectHandler := handlers.NewRedirectHandler(linkService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Public short-link redirect
	r.GET("/r/:code", middleware.RedirectRateLimit(), redirectHandler.Redirect)

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Affiliate routes
		affiliates := v1.Group("/affiliates")
		affiliates.Use(middleware.AuthRequired())
		{
			affiliates.POST("", affiliateHandler.CreateAffiliate)
			affiliates.GET("/dashboard", affiliateHandler.GetDashboard)
			affiliates.POST("/links", affiliateHandler.IssueLink)
			affiliates.GET("/links", affiliateHandler.GetLinks)
			affiliates.PUT("/links/:id/disable", affiliateHandler.DisableLink)
			affiliates.GET("/referrals", affiliateHandler.GetReferrals)
			affiliates.GET("/commissions", affiliateHandler.GetCommissionHistory)
		}

		// Referral intake (called from signup flows, affiliate code in body)
		v1.POST("/referrals", middleware.ReferralRateLimit(), middleware.OptionalAuth(), affiliateHandler.CreateReferral)

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.POST("/buy-now", orderHandler.BuyNow)
			orders.GET("", orderHandler.GetOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.GET("/:id/payments", paymentHandler.GetPaymentsByOrder)
			orders.PUT("/:id/status", middleware.AdminRequired(), orderHandler.UpdateOrderStatus)
		}

		// Payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("", paymentHandler.CreatePayment)
			payments.GET("/:id", paymentHandler.GetPayment)
			payments.PUT("/:id/status", middleware.AdminRequired(), paymentHandler.UpdatePaymentStatus)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.PUT("/affiliates/:id/status", affiliateHandler.UpdateAffiliateStatus)
			admin.POST("/affiliates/links/cleanup", affiliateHandler.CleanupExpiredLinks)
			admin.PUT("/commissions/:id/paid", affiliateHandler.MarkCommissionPaid)
		}
	}

	return r
}
