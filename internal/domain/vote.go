package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MilestoneVote Model. One vote per (milestone, investor); a later cast
// overwrites the earlier one. InvestmentWeightFc is frozen at cast time so
// investing more after voting does not retroactively shift the tally.
type MilestoneVote struct {
	ID                 string          `gorm:"type:uuid;primaryKey" json:"id"`
	MilestoneID        string          `gorm:"type:uuid;not null;uniqueIndex:idx_vote_milestone_investor" json:"milestone_id"`
	InvestorID         string          `gorm:"type:uuid;not null;uniqueIndex:idx_vote_milestone_investor" json:"investor_id"`
	CampaignID         string          `gorm:"type:uuid;index;not null" json:"campaign_id"`
	Approve            bool            `gorm:"not null" json:"approve"`                                 // true = approve, false = reject
	InvestmentWeightFc decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"investment_weight_fc"` // Confirmed investment at cast time
	CreatedAt          int64           `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt          int64           `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

// BeforeCreate assigns a uuid primary key when none was supplied
func (v *MilestoneVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
