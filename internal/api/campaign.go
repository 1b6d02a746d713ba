package api

import (
	"net/http" // HTTP status codes

	"fundchain_ledger/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // FC amounts
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// MilestoneRequest is one funding tranche in a campaign setup
type MilestoneRequest struct {
	Title          string          `json:"title" binding:"required"`
	TargetAmountFc decimal.Decimal `json:"targetAmountFc"`
	PayoutPct      decimal.Decimal `json:"payoutPct" binding:"required"`
}

// CreateCampaignRequest sets up a campaign with its milestone schedule
type CreateCampaignRequest struct {
	Title       string             `json:"title" binding:"required"`
	Description string             `json:"description"`
	GoalFc      decimal.Decimal    `json:"goalFc" binding:"required"`
	Milestones  []MilestoneRequest `json:"milestones" binding:"required,min=1"`
}

// payoutTolerance allows for rounding when checking the schedule sums to
// 100%
var payoutTolerance = decimal.NewFromFloat(0.1)

// CreateCampaignHandler creates an active campaign, its milestone schedule
// and its escrow wallet in one transaction. Milestone payout percentages
// must sum to 100.
func CreateCampaignHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CreateCampaignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
			return
		}
		if !req.GoalFc.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Goal must be a positive number"})
			return
		}
		// Validate the milestone schedule before touching the database
		totalPct := decimal.Zero
		for _, m := range req.Milestones {
			if m.PayoutPct.IsNegative() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Milestone payout percentage cannot be negative"})
				return
			}
			totalPct = totalPct.Add(m.PayoutPct)
		}
		hundred := decimal.NewFromInt(100)
		if totalPct.Sub(hundred).Abs().GreaterThan(payoutTolerance) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Total milestone percentage must be 100% (current: " + totalPct.String() + "%)",
			})
			return
		}

		campaign := domain.Campaign{
			CreatorID:   userID,
			Title:       req.Title,
			Description: req.Description,
			GoalFc:      req.GoalFc,
			Status:      domain.CampaignStatusActive,
		}
		var milestones []domain.Milestone
		// Campaign, milestones and escrow wallet commit together
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&campaign).Error; err != nil {
				return err
			}
			for i, m := range req.Milestones {
				target := m.TargetAmountFc
				if target.IsZero() {
					// Derive the tranche from the payout percentage
					target = req.GoalFc.Mul(m.PayoutPct).Div(hundred)
				}
				milestones = append(milestones, domain.Milestone{
					CampaignID:     campaign.ID,
					OrderIndex:     i,
					Title:          m.Title,
					TargetAmountFc: target,
					PayoutPct:      m.PayoutPct,
				})
			}
			if err := tx.Create(&milestones).Error; err != nil {
				return err
			}
			wallet := domain.CampaignWallet{
				CampaignID:      campaign.ID,
				EscrowBalanceFc: decimal.Zero,
				ReleasedFc:      decimal.Zero,
			}
			return tx.Create(&wallet).Error
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"creator_id": userID,
				"error":      err.Error(),
			}).Error("Failed to create campaign")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create campaign"})
			return
		}

		logrus.WithFields(logrus.Fields{
			"creator_id":  userID,
			"campaign_id": campaign.ID,
			"milestones":  len(milestones),
		}).Info("Campaign created")
		c.JSON(http.StatusCreated, gin.H{"success": true, "campaign": campaign, "milestones": milestones})
	}
}

// GetCampaignHandler returns a campaign with its milestones and escrow
// wallet
func GetCampaignHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var campaign domain.Campaign
		if err := db.First(&campaign, "id = ?", id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		var milestones []domain.Milestone
		if err := db.Where("campaign_id = ?", id).Order("order_index asc").Find(&milestones).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch milestones"})
			return
		}
		var wallet domain.CampaignWallet
		// A campaign without investments may not have a wallet row yet
		_ = db.Where("campaign_id = ?", id).First(&wallet).Error
		c.JSON(http.StatusOK, gin.H{"campaign": campaign, "milestones": milestones, "campaignWallet": wallet})
	}
}

// PostUpdateRequest is a creator progress post
type PostUpdateRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content" binding:"required"`
	IsPublic *bool  `json:"isPublic"`
}

// PostCampaignUpdateHandler records a progress update. Only the campaign's
// creator or an admin may post; at least one posted update is required
// before milestone funds can be released.
func PostCampaignUpdateHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		campaignID := c.Param("id")
		var campaign domain.Campaign
		if err := db.First(&campaign, "id = ?", campaignID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		// Only the creator of this campaign, or an admin, may post
		if campaign.CreatorID != userID {
			var user domain.User
			if err := db.First(&user, "id = ?", userID).Error; err != nil || user.Role != domain.RoleAdmin {
				c.JSON(http.StatusForbidden, gin.H{"error": "Only the campaign creator can post updates"})
				return
			}
		}
		var req PostUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
			return
		}
		update := domain.CampaignUpdate{
			CampaignID: campaignID,
			AuthorID:   userID,
			Title:      req.Title,
			Content:    req.Content,
			IsPublic:   req.IsPublic == nil || *req.IsPublic,
		}
		if update.Title == "" {
			update.Title = "Milestone Update"
		}
		if err := db.Create(&update).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post update"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "update": update})
	}
}

// ListCampaignUpdatesHandler returns a campaign's public updates, newest
// first
func ListCampaignUpdatesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var updates []domain.CampaignUpdate
		if err := db.Where("campaign_id = ? AND is_public = ?", c.Param("id"), true).
			Order("created_at desc").
			Find(&updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch updates"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"updates": updates})
	}
}
