package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Investment states. A confirmed investment is immutable except for the
// transition to refunded.
const (
	InvestmentStatusPending   = "pending"
	InvestmentStatusConfirmed = "confirmed"
	InvestmentStatusRefunded  = "refunded"
)

// Investment Model
type Investment struct {
	ID             string           `gorm:"type:uuid;primaryKey" json:"id"`               // Primary key
	CampaignID     string           `gorm:"type:uuid;index;not null" json:"campaign_id"`  // Foreign key to Campaign
	InvestorID     string           `gorm:"type:uuid;index;not null" json:"investor_id"`  // Foreign key to the investor User
	AmountFc       decimal.Decimal  `gorm:"type:numeric(20,8);not null" json:"amount_fc"` // Invested amount
	Status         string           `gorm:"index;default:pending" json:"status"`          // pending, confirmed, refunded
	RefundAmountFc *decimal.Decimal `gorm:"type:numeric(20,8)" json:"refund_amount_fc"`   // Amount actually returned
	RefundReason   string           `json:"refund_reason"`                                // Reason recorded at refund
	RefundedAt     *int64           `json:"refunded_at"`                                  // Refund timestamp (ms)
	CreatedAt      int64            `gorm:"autoCreateTime:milli" json:"created_at"`       // Timestamp of creation in milliseconds
}

// BeforeCreate assigns a uuid primary key when none was supplied
func (i *Investment) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
