package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"fundchain_ledger/internal/domain"
)

// Store is the persistence boundary of the ledger. Implementations must
// guarantee that the function passed to Atomically runs all-or-nothing and
// that rows fetched inside it are protected from concurrent writers until
// the unit commits. Getters return an error wrapping domain.ErrNotFound
// when the row does not exist.
type Store interface {
	// Atomically executes fn as a single atomic unit. fn receives a Store
	// bound to the unit; any error rolls every mutation back.
	Atomically(ctx context.Context, fn func(Store) error) error

	GetUser(ctx context.Context, id string) (*domain.User, error)

	GetWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	CreateWallet(ctx context.Context, w *domain.Wallet) error
	SaveWallet(ctx context.Context, w *domain.Wallet) error

	GetPlatformWallet(ctx context.Context) (*domain.PlatformWallet, error)
	SavePlatformWallet(ctx context.Context, w *domain.PlatformWallet) error

	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
	SaveCampaign(ctx context.Context, c *domain.Campaign) error

	GetCampaignWallet(ctx context.Context, campaignID string) (*domain.CampaignWallet, error)
	CreateCampaignWallet(ctx context.Context, w *domain.CampaignWallet) error
	SaveCampaignWallet(ctx context.Context, w *domain.CampaignWallet) error

	GetMilestone(ctx context.Context, id string) (*domain.Milestone, error)
	SaveMilestone(ctx context.Context, m *domain.Milestone) error

	CreateInvestment(ctx context.Context, inv *domain.Investment) error
	SaveInvestment(ctx context.Context, inv *domain.Investment) error
	ListConfirmedInvestments(ctx context.Context, campaignID string) ([]domain.Investment, error)
	// SumConfirmedInvestments returns the investor's total confirmed stake
	// in the campaign; zero when there is none.
	SumConfirmedInvestments(ctx context.Context, campaignID, investorID string) (decimal.Decimal, error)

	GetVote(ctx context.Context, milestoneID, investorID string) (*domain.MilestoneVote, error)
	SaveVote(ctx context.Context, v *domain.MilestoneVote) error
	ListVotes(ctx context.Context, milestoneID string) ([]domain.MilestoneVote, error)

	CountCampaignUpdates(ctx context.Context, campaignID string) (int64, error)

	// AppendTransaction writes one row to the append-only token transaction
	// log. Must be called inside the same atomic unit as the balance
	// mutation it records.
	AppendTransaction(ctx context.Context, t *domain.TokenTransaction) error

	GetIdempotencyRecord(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	PutIdempotencyRecord(ctx context.Context, rec *domain.IdempotencyRecord) error
}
