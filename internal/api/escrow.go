package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes

	"fundchain_ledger/internal/ledger" // Ledger coordinators
	"fundchain_ledger/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // FC amounts
)

// InvestRequest mirrors the invest-in-campaign body. UserID is accepted for
// contract compatibility but must match the bearer identity.
type InvestRequest struct {
	UserID     string          `json:"userId"`
	CampaignID string          `json:"campaignId" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

// InvestHandler moves FC from the caller's wallet into a campaign's escrow.
// Retries are safe when the client supplies an X-Idempotency-Key header.
func InvestHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		var req InvestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request", "details": err.Error()})
			return
		}
		// The bearer identity is authoritative; a mismatched body id is
		// rejected rather than trusted.
		if req.UserID != "" && req.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Cannot invest on behalf of another user"})
			return
		}

		result, err := svc.Invest(c.Request.Context(), ledger.InvestInput{
			UserID:         userID,
			CampaignID:     req.CampaignID,
			AmountFc:       req.Amount,
			IdempotencyKey: c.GetHeader("X-Idempotency-Key"),
		})
		if err != nil {
			respondLedgerError(c, err)
			return
		}

		invalidateWalletCaches(c, rdb, userID)
		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"investment":     result.Investment,
			"newBalance":     result.NewBalance,
			"campaignWallet": result.CampaignWallet,
		})
	}
}

// ReleaseRequest mirrors the release-milestone-funds body
type ReleaseRequest struct {
	AdminID     string          `json:"adminId" binding:"required"`
	CampaignID  string          `json:"campaignId" binding:"required"`
	MilestoneID string          `json:"milestoneId" binding:"required"`
	AmountFc    decimal.Decimal `json:"amountFc" binding:"required"`
	Notes       string          `json:"notes"`
}

// ReleaseHandler pays a milestone tranche out of escrow to the creator.
// Admin-only; the ledger re-validates every precondition inside the
// transaction regardless of what the admin UI showed.
func ReleaseHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		var req ReleaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request", "details": err.Error()})
			return
		}
		if req.AdminID != userID {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "adminId must match the authenticated caller"})
			return
		}

		result, err := svc.Release(c.Request.Context(), ledger.ReleaseInput{
			AdminID:     req.AdminID,
			CampaignID:  req.CampaignID,
			MilestoneID: req.MilestoneID,
			AmountFc:    req.AmountFc,
			Notes:       req.Notes,
		})
		if err != nil {
			respondLedgerError(c, err)
			return
		}

		invalidateVoteCaches(c, rdb, req.MilestoneID)
		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"campaignWallet": result.CampaignWallet,
			"creatorWallet":  result.CreatorWallet,
			"milestone":      result.Milestone,
		})
	}
}

// RefundRequest mirrors the refund-campaign-investors body
type RefundRequest struct {
	AdminID    string `json:"adminId" binding:"required"`
	CampaignID string `json:"campaignId" binding:"required"`
	Reason     string `json:"reason"`
}

// RefundHandler returns a failed campaign's escrow to its investors
func RefundHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		var req RefundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request", "details": err.Error()})
			return
		}
		if req.AdminID != userID {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "adminId must match the authenticated caller"})
			return
		}

		result, err := svc.Refund(c.Request.Context(), ledger.RefundInput{
			AdminID:    req.AdminID,
			CampaignID: req.CampaignID,
			Reason:     req.Reason,
		})
		if err != nil {
			respondLedgerError(c, err)
			return
		}

		// Refunds touch every investor wallet; drop all wallet caches
		if rdb != nil {
			_ = utils.DeleteCacheByPattern(context.Background(), rdb, "wallet:user:*")
			_ = utils.DeleteCacheByPattern(context.Background(), rdb, "txhistory:user:*")
		}
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"message":       result.Message,
			"refundedCount": result.RefundedCount,
			"totalRefund":   result.TotalRefund,
		})
	}
}

// invalidateWalletCaches drops the wallet and transaction history cache for
// one user after a balance mutation
func invalidateWalletCaches(c *gin.Context, rdb *redis.Client, userID string) {
	if rdb == nil {
		return
	}
	ctx := context.Background()
	_ = utils.DeleteCache(ctx, rdb, "wallet:user:"+userID)
	_ = utils.DeleteCacheByPattern(ctx, rdb, "txhistory:user:"+userID+":*")
}

// invalidateVoteCaches drops the cached tally for a milestone
func invalidateVoteCaches(c *gin.Context, rdb *redis.Client, milestoneID string) {
	if rdb == nil {
		return
	}
	_ = utils.DeleteCache(context.Background(), rdb, "votestats:milestone:"+milestoneID)
}
