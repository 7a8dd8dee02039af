// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/shopvn-backend/internal/cache"
	"github.com/javajoker/shopvn-backend/internal/config"
	"github.com/javajoker/shopvn-backend/internal/database"
	"github.com/javajoker/shopvn-backend/internal/i18n"
	"github.com/javajoker/shopvn-backend/internal/router"
	"github.com/javajoker/shopvn-backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		log.Fatal("Failed to initialize i18n:", err)
	}

	// Redis-backed redirect cache
	redisClient := cache.NewClient(cfg.Redis)
	linkCache := cache.NewLinkCache(redisClient, time.Duration(cfg.Affiliate.RedirectCacheTTL)*time.Second)

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(db, cfg, linkCache)

	// Nightly sweep flips links past their expiry to expired
	linkService := services.NewLinkService(db, cfg, services.NewCatalogService(db), linkCache)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Affiliate.CleanupSchedule, func() {
		count, err := linkService.CleanupExpired()
		if err != nil {
			logrus.WithError(err).Error("Link cleanup sweep failed")
			return
		}
		logrus.WithField("expired", count).Info("Link cleanup sweep completed")
	}); err != nil {
		log.Fatal("Failed to schedule link cleanup:", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if err := redisClient.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close redis client")
	}

	log.Println("Server exited")
}
