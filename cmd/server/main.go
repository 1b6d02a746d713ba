package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"fundchain_ledger/internal/api"        // Custom package for API handlers
	"fundchain_ledger/internal/config"     // Custom package for configuration
	"fundchain_ledger/internal/domain"     // Domain models for role constants
	"fundchain_ledger/internal/ledger"     // Escrow ledger core
	"fundchain_ledger/internal/middleware" // Custom package for middleware

	// For loading .env files
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/postgres"      // PostgreSQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Ledger core backed by the database
	svc := ledger.NewService(ledger.NewGormStore(db))

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/user", api.RegisterHandler(db))            // Registration endpoint
	r.GET("/user", api.LoginHandler(db, cfg.JWTSecret)) // Login endpoint

	// Public campaign routes
	r.GET("/campaigns/:id", api.GetCampaignHandler(db))                 // Campaign details endpoint
	r.GET("/campaigns/:id/updates", api.ListCampaignUpdatesHandler(db)) // Campaign updates endpoint
	r.GET("/milestones/:id/vote-stats", api.VoteStatsHandler(svc, redisClient))

	// Authenticated routes (protected by JWT)
	auth := r.Group("")
	auth.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), func(c *gin.Context) {
		c.Set("redisClient", redisClient)
		c.Next()
	})

	// Wallet routes
	auth.POST("/wallet", api.CreateWalletHandler(db))                                   // Create wallet endpoint
	auth.GET("/wallet", api.GetWalletHandler(db, redisClient))                          // Get wallet endpoint
	auth.POST("/wallet/deposit", api.DepositHandler(svc, redisClient))                  // Deposit endpoint
	auth.GET("/wallet/transactions", api.GetTransactionHistoryHandler(db, redisClient)) // Transaction history endpoint
	auth.GET("/investments", api.GetUserInvestmentsHandler(db))                         // Investment listing endpoint

	// Escrow routes
	auth.POST("/invest-in-campaign", api.InvestHandler(svc, redisClient)) // Campaign investment endpoint

	// Campaign management routes (creators and admins)
	campaigns := auth.Group("/campaigns")
	campaigns.Use(middleware.RoleMiddleware(db, domain.RoleCreator, domain.RoleAdmin))
	campaigns.POST("", api.CreateCampaignHandler(db))                 // Campaign creation endpoint
	campaigns.POST("/:id/updates", api.PostCampaignUpdateHandler(db)) // Progress update endpoint

	// Voting routes
	auth.POST("/milestones/:id/votes", api.CastVoteHandler(svc, redisClient)) // Vote casting endpoint
	auth.GET("/milestones/:id/votes", api.GetUserVoteHandler(svc))            // Own vote lookup endpoint

	// Admin routes (protected, admin only)
	adminGroup := r.Group("")
	// Protect admin routes with JWT and AdminOnly middleware
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(db))
	adminGroup.POST("/release-milestone-funds", api.ReleaseHandler(svc, redisClient))   // Milestone release endpoint
	adminGroup.POST("/refund-campaign-investors", api.RefundHandler(svc, redisClient))  // Campaign refund endpoint
	adminGroup.GET("/admin/users", api.ListUsersHandler(db, redisClient))               // List users endpoint
	adminGroup.GET("/admin/transactions", api.ListTransactionsHandler(db, redisClient)) // List transactions endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
