package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"fundchain_ledger/internal/domain" // Importing domain models
	"fundchain_ledger/internal/ledger" // Ledger coordinators
	"fundchain_ledger/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // FC amounts
	"gorm.io/gorm"                  // GORM ORM library

	"github.com/sirupsen/logrus" // Logging library
)

// CreateWalletHandler creates an FC wallet for a user (one wallet per
// user). Re-creating is not an error: the existing wallet is returned with
// status "exists".
func CreateWalletHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, ok := callerID(c)
		if !ok {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Check if wallet already exists
		var wallet domain.Wallet
		// Query wallet by user ID
		if err := db.Where("user_id = ?", userID).First(&wallet).Error; err == nil {
			// If wallet exists, return it instead of failing
			c.JSON(http.StatusOK, gin.H{"status": "exists", "wallet": wallet})
			return
		}
		// Create new wallet with zero balances
		wallet = domain.Wallet{UserID: userID, BalanceFc: decimal.Zero, LockedFc: decimal.Zero}
		// Save the new wallet
		if err := db.Create(&wallet).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to create wallet") // Log failure
			// Return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create wallet"})
			return
		}
		// Log successful wallet creation
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,    // User ID
			"wallet_id": wallet.ID, // Wallet ID
		}).Info("Wallet created") // Log wallet creation
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"status": "created", "wallet": wallet})
	}
}

// GetWalletHandler returns the FC balances for the authenticated user
func GetWalletHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, ok := callerID(c)
		if !ok {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := context.Background()         // Context for Redis operations
		cacheKey := "wallet:user:" + userID // Cache key for wallet
		var wallet domain.Wallet
		found, err := utils.GetCache(ctx, rdb, cacheKey, &wallet) // Try to get from cache
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"status": "success", "balanceFc": wallet.BalanceFc, "lockedFc": wallet.LockedFc, "cached": true})
			return
		}
		// If not in cache, fetch from DB
		if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			// A user without a wallet is not a fault, mirror the stored shape
			c.JSON(http.StatusOK, gin.H{"status": "not_found"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, wallet, 60*time.Second) // Cache the wallet for 60 seconds
		c.JSON(http.StatusOK, gin.H{"status": "success", "balanceFc": wallet.BalanceFc, "lockedFc": wallet.LockedFc, "cached": false})
	}
}

// DepositRequest represents an FC credit from an external purchase
type DepositRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"` // FC amount to credit
	Reference string          `json:"reference"`                 // External payment reference
}

// DepositHandler credits purchased FC into the caller's wallet through the
// ledger, so the credit and its transaction row commit together
func DepositHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, ok := callerID(c)
		if !ok {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req DepositRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		balance, err := svc.Deposit(c.Request.Context(), ledger.DepositInput{
			UserID:    userID,
			AmountFc:  req.Amount,
			Reference: req.Reference,
		})
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		// Invalidate wallet and transaction history cache
		invalidateWalletCaches(c, rdb, userID)
		// Return success response
		c.JSON(http.StatusOK, gin.H{"success": true, "credited": req.Amount, "newBalance": balance})
	}
}

// GetTransactionHistoryHandler returns the authenticated user's token
// transactions, newest first
func GetTransactionHistoryHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, ok := callerID(c)
		if !ok {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		page := 1      // Default page
		pageSize := 20 // Default page size
		// If page exists in query
		if p := c.Query("page"); p != "" {
			// Convert page to integer
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// If page_size exists in query
		if ps := c.Query("page_size"); ps != "" {
			// Convert page_size to integer
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size if valid
			}
		}
		offset := (page - 1) * pageSize // Calculate offset
		// Redis cache key
		cacheKey := "txhistory:user:" + userID + ":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		ctx := context.Background() // Context for Redis operations
		var cached struct {
			Transactions []domain.TokenTransaction `json:"transactions"` // List of transactions
			Page         int                       `json:"page"`         // Current page
			PageSize     int                       `json:"page_size"`    // Page size
			Total        int64                     `json:"total"`        // Total transactions
			TotalPages   int                       `json:"total_pages"`  // Total pages
		}
		// Try to get from cache
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"transactions": cached.Transactions, // Cached transactions
				"page":         cached.Page,         // Current page
				"page_size":    cached.PageSize,     // Page size
				"total":        cached.Total,        // Total transactions
				"total_pages":  cached.TotalPages,   // Total pages
				"cached":       true,
			})
			return
		}
		var total int64 // Total count of transactions
		// Count total transactions for pagination
		if err := db.Model(&domain.TokenTransaction{}).
			Where("user_id = ?", userID).
			Count(&total).Error; err != nil {
			// If counting fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count transactions"})
			return
		}
		var transactions []domain.TokenTransaction // Slice to hold transactions
		// Fetch paginated transactions
		if err := db.Where("user_id = ?", userID).
			Order("created_at desc").
			Offset(offset).
			Limit(pageSize).
			Find(&transactions).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		// Calculate total pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"transactions": transactions, // List of transactions
			"page":         page,         // Current page
			"page_size":    pageSize,     // Page size
			"total":        total,        // Total transactions
			"total_pages":  totalPages,   // Total pages
			"cached":       false,        // Not from cache
		}
		// Cache the result for 60 seconds
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp) // Return transaction history
	}
}

// GetUserInvestmentsHandler returns the caller's investments across all
// campaigns
func GetUserInvestmentsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, ok := callerID(c)
		if !ok {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var investments []domain.Investment // Slice to hold investments
		// Fetch investments for the user, newest first
		if err := db.Where("investor_id = ?", userID).
			Order("created_at desc").
			Find(&investments).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch investments"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "investments": investments})
	}
}
