package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet Model. BalanceFc is spendable, LockedFc is committed to open
// campaigns and only moves back on refund. Both must stay >= 0.
type Wallet struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`                          // Primary key
	UserID    string          `gorm:"type:uuid;uniqueIndex" json:"user_id"`                    // Foreign key to User
	BalanceFc decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"balance_fc"` // Spendable FC balance
	LockedFc  decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"locked_fc"`  // FC committed to campaigns
	UpdatedAt int64           `gorm:"autoUpdateTime:milli" json:"updated_at"`                  // Timestamp of last update
}

// BeforeCreate assigns a uuid primary key when none was supplied
func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// PlatformWallet is a singleton row. LockedFc mirrors the sum of investor
// funds committed to campaigns that have not been released or refunded.
type PlatformWallet struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	BalanceFc decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"balance_fc"`
	LockedFc  decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"locked_fc"`
	UpdatedAt int64           `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

// CampaignWallet holds a campaign's escrow. Conservation invariant:
// EscrowBalanceFc + ReleasedFc == confirmed investments - refunds.
type CampaignWallet struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	CampaignID      string          `gorm:"type:uuid;uniqueIndex" json:"campaign_id"`
	EscrowBalanceFc decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"escrow_balance_fc"` // Held, awaiting release
	ReleasedFc      decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"released_fc"`       // Cumulative released to creator
	UpdatedAt       int64           `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

// BeforeCreate assigns a uuid primary key when none was supplied
func (w *CampaignWallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
