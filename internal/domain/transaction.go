package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Token transaction types. The log is append-only; rows are never updated
// or deleted after commit.
const (
	TxTypeInvest  = "invest_fc"
	TxTypeRelease = "release_fc"
	TxTypeRefund  = "refund_fc"
	TxTypeDeposit = "deposit_fc"
)

// TokenTransaction Model. Every balance mutation writes exactly one row in
// the same database transaction as the mutation itself.
type TokenTransaction struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`               // Primary key
	UserID      string          `gorm:"type:uuid;index;not null" json:"user_id"`      // User the movement belongs to
	CampaignID  *string         `gorm:"type:uuid;index" json:"campaign_id"`           // Campaign, when applicable
	MilestoneID *string         `gorm:"type:uuid;index" json:"milestone_id"`          // Milestone, for releases
	Type        string          `gorm:"index;not null" json:"type"`                   // invest_fc, release_fc, refund_fc, deposit_fc
	AmountFc    decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"amount_fc"` // Amount moved
	Metadata    string          `gorm:"type:jsonb;default:'{}'" json:"metadata"`      // Free-form context (reason, approved_by, ...)
	CreatedAt   int64           `gorm:"autoCreateTime:milli;index" json:"created_at"` // Timestamp of creation in milliseconds
}

// BeforeCreate assigns a uuid primary key when none was supplied
func (t *TokenTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// IdempotencyRecord stores the serialized outcome of a keyed ledger
// operation so a client retry replays the original result instead of
// mutating balances a second time.
type IdempotencyRecord struct {
	Key          string `gorm:"primaryKey" json:"key"`
	RequestHash  string `gorm:"not null" json:"request_hash"`
	ResponseBody []byte `gorm:"type:bytea" json:"-"`
	CreatedAt    int64  `gorm:"autoCreateTime:milli" json:"created_at"`
}
