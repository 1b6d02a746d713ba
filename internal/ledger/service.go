package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fundchain_ledger/internal/domain"
)

// Service orchestrates every balance-affecting operation of the platform:
// investing into a campaign, casting milestone votes, releasing milestone
// funds to the creator and refunding investors. All mutations run through
// Store.Atomically so partial state is never observable.
type Service struct {
	store Store
	log   *logrus.Entry
}

// NewService builds a ledger service on the given store
func NewService(store Store) *Service {
	return &Service{
		store: store,
		log:   logrus.WithField("component", "ledger"),
	}
}

// BalancePair is a user wallet snapshot returned to clients
type BalancePair struct {
	BalanceFc decimal.Decimal `json:"balance_fc"`
	LockedFc  decimal.Decimal `json:"locked_fc"`
}

// EscrowSnapshot is a campaign wallet snapshot returned to clients
type EscrowSnapshot struct {
	EscrowBalanceFc decimal.Decimal `json:"escrow_balance_fc"`
	ReleasedFc      decimal.Decimal `json:"released_fc"`
}

// logFailure records a failed operation. Business-rule rejections are
// expected traffic and log at warn; anything else is a fault.
func (s *Service) logFailure(msg string, err error, fields logrus.Fields) {
	entry := s.log.WithFields(fields).WithField("error", err.Error())
	if domain.IsBusinessError(err) {
		entry.Warn(msg)
	} else {
		entry.Error(msg)
	}
}

// requireAdmin loads the caller and checks the admin role. The check runs
// server-side on every admin operation regardless of any client gating.
func (s *Service) requireAdmin(ctx context.Context, store Store, adminID string) (*domain.User, error) {
	admin, err := store.GetUser(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("admin: %w", err)
	}
	if admin.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("user %s is not an admin: %w", adminID, domain.ErrUnauthorized)
	}
	return admin, nil
}

// getOrCreateWallet fetches a user wallet, creating a zeroed one when the
// user has never held FC (mirrors the lazy creator-wallet creation of the
// release flow)
func getOrCreateWallet(ctx context.Context, store Store, userID string) (*domain.Wallet, error) {
	w, err := store.GetWallet(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	w = &domain.Wallet{UserID: userID, BalanceFc: decimal.Zero, LockedFc: decimal.Zero}
	if err := store.CreateWallet(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}
