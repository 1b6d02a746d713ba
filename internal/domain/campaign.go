package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Campaign states. Only an active campaign accepts investments; failed and
// cancelled are terminal.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusFunded    = "funded"
	CampaignStatusFailed    = "failed"
	CampaignStatusCancelled = "cancelled"
)

// Campaign Model
type Campaign struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`                               // Primary key
	CreatorID     string          `gorm:"type:uuid;index;not null" json:"creator_id"`                   // Foreign key to the creator User
	Title         string          `gorm:"not null" json:"title"`                                        // Campaign title
	Description   string          `json:"description"`                                                  // Campaign description
	Status        string          `gorm:"index;default:draft" json:"status"`                            // draft, active, funded, failed, cancelled
	GoalFc        decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"goal_fc"`         // Funding goal
	TotalRaisedFc decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"total_raised_fc"` // Cumulative confirmed investments
	CreatedAt     int64           `gorm:"autoCreateTime:milli" json:"created_at"`                       // Timestamp of creation in milliseconds
	UpdatedAt     int64           `gorm:"autoUpdateTime:milli" json:"updated_at"`                       // Timestamp of last update
}

// BeforeCreate assigns a uuid primary key when none was supplied
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CampaignUpdate is a creator progress post. At least one posted update is a
// precondition for releasing milestone funds.
type CampaignUpdate struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	CampaignID string `gorm:"type:uuid;index;not null" json:"campaign_id"`
	AuthorID   string `gorm:"type:uuid;not null" json:"author_id"`
	Title      string `gorm:"not null" json:"title"`
	Content    string `gorm:"not null" json:"content"`
	IsPublic   bool   `gorm:"default:true" json:"is_public"`
	CreatedAt  int64  `gorm:"autoCreateTime:milli" json:"created_at"`
}

// BeforeCreate assigns a uuid primary key when none was supplied
func (u *CampaignUpdate) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
