package ledger

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"fundchain_ledger/internal/domain"
)

func init() {
	logrus.SetOutput(io.Discard)
}

// fixture wires a service over an in-memory store with one active campaign,
// one open milestone and a cast of funded users.
type fixture struct {
	store *MemStore
	svc   *Service
	ctx   context.Context

	adminID     string
	creatorID   string
	investorA   string
	investorB   string
	campaignID  string
	milestoneID string
}

func fc(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewMemStore()
	f := &fixture{
		store:       store,
		svc:         NewService(store),
		ctx:         context.Background(),
		adminID:     "admin-1",
		creatorID:   "creator-1",
		investorA:   "investor-a",
		investorB:   "investor-b",
		campaignID:  "campaign-1",
		milestoneID: "milestone-1",
	}

	store.PutUser(domain.User{ID: f.adminID, Username: "admin", Role: domain.RoleAdmin})
	store.PutUser(domain.User{ID: f.creatorID, Username: "creator", Role: domain.RoleCreator})
	store.PutUser(domain.User{ID: f.investorA, Username: "alice", Role: domain.RoleInvestor})
	store.PutUser(domain.User{ID: f.investorB, Username: "bob", Role: domain.RoleInvestor})

	f.seedWallet(t, f.investorA, "5000")
	f.seedWallet(t, f.investorB, "5000")

	require.NoError(t, store.SaveCampaign(f.ctx, &domain.Campaign{
		ID:        f.campaignID,
		CreatorID: f.creatorID,
		Title:     "Solar Microgrid",
		Status:    domain.CampaignStatusActive,
		GoalFc:    fc("10000"),
	}))
	require.NoError(t, store.SaveMilestone(f.ctx, &domain.Milestone{
		ID:         f.milestoneID,
		CampaignID: f.campaignID,
		OrderIndex: 0,
		Title:      "Prototype",
		PayoutPct:  fc("50"),
	}))
	return f
}

func (f *fixture) seedWallet(t *testing.T, userID, balance string) {
	t.Helper()
	require.NoError(t, f.store.CreateWallet(f.ctx, &domain.Wallet{
		UserID:    userID,
		BalanceFc: fc(balance),
		LockedFc:  decimal.Zero,
	}))
}

func (f *fixture) invest(t *testing.T, userID, amount string) *InvestResult {
	t.Helper()
	res, err := f.svc.Invest(f.ctx, InvestInput{
		UserID:     userID,
		CampaignID: f.campaignID,
		AmountFc:   fc(amount),
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) vote(t *testing.T, userID string, approve bool) {
	t.Helper()
	_, err := f.svc.CastVote(f.ctx, CastVoteInput{
		MilestoneID: f.milestoneID,
		InvestorID:  userID,
		Approve:     approve,
	})
	require.NoError(t, err)
}

func (f *fixture) postUpdate() {
	f.store.PutCampaignUpdate(domain.CampaignUpdate{
		CampaignID: f.campaignID,
		AuthorID:   f.creatorID,
		Title:      "Progress",
		Content:    "Prototype assembled",
		IsPublic:   true,
	})
}

func (f *fixture) wallet(t *testing.T, userID string) *domain.Wallet {
	t.Helper()
	w, err := f.store.GetWallet(f.ctx, userID)
	require.NoError(t, err)
	return w
}

func (f *fixture) campaignWallet(t *testing.T) *domain.CampaignWallet {
	t.Helper()
	w, err := f.store.GetCampaignWallet(f.ctx, f.campaignID)
	require.NoError(t, err)
	return w
}

func (f *fixture) platform(t *testing.T) *domain.PlatformWallet {
	t.Helper()
	w, err := f.store.GetPlatformWallet(f.ctx)
	require.NoError(t, err)
	return w
}

// requireFC fails unless got equals the expected decimal string
func requireFC(t *testing.T, expected string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(fc(expected)), "expected %s FC, got %s", expected, got)
}
