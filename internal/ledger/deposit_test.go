package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundchain_ledger/internal/domain"
)

func TestDepositCreditsBalance(t *testing.T) {
	f := newFixture(t)

	balance, err := f.svc.Deposit(f.ctx, DepositInput{
		UserID:    f.investorA,
		AmountFc:  fc("250.5"),
		Reference: "pay_abc123",
	})
	require.NoError(t, err)
	requireFC(t, "5250.5", balance.BalanceFc)
	requireFC(t, "0", balance.LockedFc)

	txs := f.store.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TxTypeDeposit, txs[0].Type)
	assert.Contains(t, txs[0].Metadata, "pay_abc123")
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Deposit(f.ctx, DepositInput{UserID: f.investorA, AmountFc: fc("0")})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestDepositUnknownWallet(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Deposit(f.ctx, DepositInput{UserID: "no-such-user", AmountFc: fc("10")})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBalanceSnapshot(t *testing.T) {
	f := newFixture(t)
	f.invest(t, f.investorA, "1500")

	balance, err := f.svc.Balance(f.ctx, f.investorA)
	require.NoError(t, err)
	requireFC(t, "3500", balance.BalanceFc)
	requireFC(t, "1500", balance.LockedFc)
}
