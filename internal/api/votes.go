package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"time"     // Time durations

	"fundchain_ledger/internal/domain" // Importing domain models
	"fundchain_ledger/internal/ledger" // Ledger coordinators
	"fundchain_ledger/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// CastVoteRequest is an investor's verdict; the field name matches the
// stored column
type CastVoteRequest struct {
	Vote *bool `json:"vote" binding:"required"` // true = approve, false = reject
}

// CastVoteHandler records the caller's vote on a milestone. Only investors
// with a confirmed investment in the campaign may vote; a re-vote
// overwrites the previous verdict.
func CastVoteHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CastVoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
			return
		}
		vote, err := svc.CastVote(c.Request.Context(), ledger.CastVoteInput{
			MilestoneID: c.Param("id"),
			InvestorID:  userID,
			Approve:     *req.Vote,
		})
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		// The cached tally is stale now
		invalidateVoteCaches(c, rdb, vote.MilestoneID)
		c.JSON(http.StatusOK, gin.H{"success": true, "vote": vote})
	}
}

// GetUserVoteHandler returns the caller's vote on a milestone, or null when
// none was cast
func GetUserVoteHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		vote, err := svc.UserVote(c.Request.Context(), c.Param("id"), userID)
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"vote": nil})
			return
		}
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"vote": vote})
	}
}

// VoteStatsHandler returns the weighted tally and consensus verdict for a
// milestone. The tally is read-heavy during a vote window, so it is cached
// briefly and dropped on every cast.
func VoteStatsHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		milestoneID := c.Param("id")
		ctx := context.Background()
		cacheKey := "votestats:milestone:" + milestoneID
		var cached ledger.VoteStats
		if rdb != nil {
			if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
				c.JSON(http.StatusOK, gin.H{"stats": cached, "cached": true})
				return
			}
		}
		stats, err := svc.VoteStats(c.Request.Context(), milestoneID)
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		if rdb != nil {
			_ = utils.SetCache(ctx, rdb, cacheKey, stats, 15*time.Second)
		}
		c.JSON(http.StatusOK, gin.H{"stats": stats, "cached": false})
	}
}
