package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Milestone Model. Completion is terminal: once IsCompleted is set the row
// never transitions back and a second release must be rejected.
type Milestone struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`                                // Primary key
	CampaignID      string          `gorm:"type:uuid;index;not null" json:"campaign_id"`                   // Foreign key to Campaign
	OrderIndex      int             `gorm:"not null" json:"order_index"`                                   // Position within the campaign
	Title           string          `gorm:"not null" json:"title"`                                         // Milestone title
	TargetAmountFc  decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"target_amount_fc"` // Payout for this tranche
	PayoutPct       decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"payout_pct"`        // Share of the campaign goal
	IsCompleted     bool            `gorm:"default:false" json:"is_completed"`                             // Terminal completion flag
	CompletionDate  *int64          `json:"completion_date"`                                               // Set when funds are released (ms)
	CompletionNotes string          `json:"completion_notes"`                                              // Admin notes recorded at release
	CreatedAt       int64           `gorm:"autoCreateTime:milli" json:"created_at"`                        // Timestamp of creation in milliseconds
}

// BeforeCreate assigns a uuid primary key when none was supplied
func (m *Milestone) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
