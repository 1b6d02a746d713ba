package ledger

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fundchain_ledger/internal/domain"
)

// DepositInput credits purchased FC to a user wallet. Reference carries the
// external payment identifier for the audit trail.
type DepositInput struct {
	UserID    string
	AmountFc  decimal.Decimal
	Reference string
}

// Deposit adds AmountFc to the user's spendable balance and appends one
// deposit_fc transaction. Verification of the external payment happens
// upstream; the ledger only records the credit.
func (s *Service) Deposit(ctx context.Context, in DepositInput) (*BalancePair, error) {
	if !in.AmountFc.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var balance BalancePair
	err := s.store.Atomically(ctx, func(tx Store) error {
		wallet, err := tx.GetWallet(ctx, in.UserID)
		if err != nil {
			return err
		}
		wallet.BalanceFc = wallet.BalanceFc.Add(in.AmountFc)
		if err := tx.SaveWallet(ctx, wallet); err != nil {
			return err
		}

		meta, _ := json.Marshal(map[string]any{"reference": in.Reference})
		if err := tx.AppendTransaction(ctx, &domain.TokenTransaction{
			UserID:   in.UserID,
			Type:     domain.TxTypeDeposit,
			AmountFc: in.AmountFc,
			Metadata: string(meta),
		}); err != nil {
			return err
		}

		balance = BalancePair{BalanceFc: wallet.BalanceFc, LockedFc: wallet.LockedFc}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   in.UserID,
		"amount_fc": in.AmountFc,
		"type":      domain.TxTypeDeposit,
	}).Info("Deposit credited")
	return &balance, nil
}

// Balance returns the user's wallet snapshot
func (s *Service) Balance(ctx context.Context, userID string) (*BalancePair, error) {
	wallet, err := s.store.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BalancePair{BalanceFc: wallet.BalanceFc, LockedFc: wallet.LockedFc}, nil
}
