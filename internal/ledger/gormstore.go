package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fundchain_ledger/internal/domain"
)

// GormStore backs the ledger with Postgres via gorm. Inside an atomic unit
// every row fetch takes a FOR UPDATE lock, so operations touching the same
// wallets serialize against each other instead of losing updates.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

// NewGormStore wraps an open gorm connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Atomically runs fn inside a database transaction, retrying the whole unit
// a few times when Postgres aborts it with a serialization or deadlock
// failure. Nested calls join the enclosing transaction.
func (s *GormStore) Atomically(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return retry.Do(
		func() error {
			return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				return fn(&GormStore{db: tx, inTx: true})
			})
		},
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.RetryIf(isRetryableTxError),
		retry.LastErrorOnly(true),
	)
}

// isRetryableTxError matches Postgres serialization_failure and
// deadlock_detected, the two abort codes that are safe to replay
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// lock adds FOR UPDATE when running inside a transaction
func (s *GormStore) lock(db *gorm.DB) *gorm.DB {
	if s.inTx {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// notFound maps gorm's missing-record error onto the domain taxonomy
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return err
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (s *GormStore) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := s.lock(s.db.WithContext(ctx)).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, notFound(err, "wallet")
	}
	return &w, nil
}

func (s *GormStore) CreateWallet(ctx context.Context, w *domain.Wallet) error {
	return s.db.WithContext(ctx).Create(w).Error
}

func (s *GormStore) SaveWallet(ctx context.Context, w *domain.Wallet) error {
	return s.db.WithContext(ctx).Save(w).Error
}

func (s *GormStore) GetPlatformWallet(ctx context.Context) (*domain.PlatformWallet, error) {
	var w domain.PlatformWallet
	if err := s.lock(s.db.WithContext(ctx)).First(&w).Error; err != nil {
		return nil, notFound(err, "platform wallet")
	}
	return &w, nil
}

func (s *GormStore) SavePlatformWallet(ctx context.Context, w *domain.PlatformWallet) error {
	return s.db.WithContext(ctx).Save(w).Error
}

func (s *GormStore) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	var c domain.Campaign
	if err := s.lock(s.db.WithContext(ctx)).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "campaign")
	}
	return &c, nil
}

func (s *GormStore) SaveCampaign(ctx context.Context, c *domain.Campaign) error {
	return s.db.WithContext(ctx).Save(c).Error
}

func (s *GormStore) GetCampaignWallet(ctx context.Context, campaignID string) (*domain.CampaignWallet, error) {
	var w domain.CampaignWallet
	if err := s.lock(s.db.WithContext(ctx)).Where("campaign_id = ?", campaignID).First(&w).Error; err != nil {
		return nil, notFound(err, "campaign wallet")
	}
	return &w, nil
}

func (s *GormStore) CreateCampaignWallet(ctx context.Context, w *domain.CampaignWallet) error {
	return s.db.WithContext(ctx).Create(w).Error
}

func (s *GormStore) SaveCampaignWallet(ctx context.Context, w *domain.CampaignWallet) error {
	return s.db.WithContext(ctx).Save(w).Error
}

func (s *GormStore) GetMilestone(ctx context.Context, id string) (*domain.Milestone, error) {
	var m domain.Milestone
	if err := s.lock(s.db.WithContext(ctx)).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "milestone")
	}
	return &m, nil
}

func (s *GormStore) SaveMilestone(ctx context.Context, m *domain.Milestone) error {
	return s.db.WithContext(ctx).Save(m).Error
}

func (s *GormStore) CreateInvestment(ctx context.Context, inv *domain.Investment) error {
	return s.db.WithContext(ctx).Create(inv).Error
}

func (s *GormStore) SaveInvestment(ctx context.Context, inv *domain.Investment) error {
	return s.db.WithContext(ctx).Save(inv).Error
}

func (s *GormStore) ListConfirmedInvestments(ctx context.Context, campaignID string) ([]domain.Investment, error) {
	var invs []domain.Investment
	err := s.lock(s.db.WithContext(ctx)).
		Where("campaign_id = ? AND status = ?", campaignID, domain.InvestmentStatusConfirmed).
		Order("created_at asc").
		Find(&invs).Error
	return invs, err
}

func (s *GormStore) SumConfirmedInvestments(ctx context.Context, campaignID, investorID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.WithContext(ctx).
		Model(&domain.Investment{}).
		Where("campaign_id = ? AND investor_id = ? AND status = ?", campaignID, investorID, domain.InvestmentStatusConfirmed).
		Select("COALESCE(SUM(amount_fc), 0)").
		Scan(&total).Error
	return total, err
}

func (s *GormStore) GetVote(ctx context.Context, milestoneID, investorID string) (*domain.MilestoneVote, error) {
	var v domain.MilestoneVote
	err := s.db.WithContext(ctx).
		Where("milestone_id = ? AND investor_id = ?", milestoneID, investorID).
		First(&v).Error
	if err != nil {
		return nil, notFound(err, "vote")
	}
	return &v, nil
}

func (s *GormStore) SaveVote(ctx context.Context, v *domain.MilestoneVote) error {
	if v.ID == "" {
		return s.db.WithContext(ctx).Create(v).Error
	}
	return s.db.WithContext(ctx).Save(v).Error
}

func (s *GormStore) ListVotes(ctx context.Context, milestoneID string) ([]domain.MilestoneVote, error) {
	var votes []domain.MilestoneVote
	err := s.db.WithContext(ctx).
		Where("milestone_id = ?", milestoneID).
		Find(&votes).Error
	return votes, err
}

func (s *GormStore) CountCampaignUpdates(ctx context.Context, campaignID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&domain.CampaignUpdate{}).
		Where("campaign_id = ?", campaignID).
		Count(&n).Error
	return n, err
}

func (s *GormStore) AppendTransaction(ctx context.Context, t *domain.TokenTransaction) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *GormStore) GetIdempotencyRecord(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	var rec domain.IdempotencyRecord
	if err := s.db.WithContext(ctx).First(&rec, "key = ?", key).Error; err != nil {
		return nil, notFound(err, "idempotency record")
	}
	return &rec, nil
}

// PutIdempotencyRecord relies on the primary key: two concurrent units
// racing on the same key cannot both commit, so a replayed transfer never
// mutates balances twice.
func (s *GormStore) PutIdempotencyRecord(ctx context.Context, rec *domain.IdempotencyRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}
