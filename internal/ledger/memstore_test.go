package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"fundchain_ledger/internal/domain"
)

func TestMemStoreAtomicallyRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.CreateWallet(ctx, &domain.Wallet{
		UserID:    "u1",
		BalanceFc: fc("100"),
	}))

	boom := errors.New("boom")
	err := store.Atomically(ctx, func(tx Store) error {
		w, err := tx.GetWallet(ctx, "u1")
		require.NoError(t, err)
		w.BalanceFc = fc("0")
		require.NoError(t, tx.SaveWallet(ctx, w))
		require.NoError(t, tx.AppendTransaction(ctx, &domain.TokenTransaction{
			UserID: "u1", Type: domain.TxTypeDeposit, AmountFc: fc("100"),
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Both mutations rolled back together
	w, err := store.GetWallet(ctx, "u1")
	require.NoError(t, err)
	requireFC(t, "100", w.BalanceFc)
	require.Empty(t, store.Transactions())
}

func TestMemStoreAtomicallyCommits(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	err := store.Atomically(ctx, func(tx Store) error {
		return tx.CreateWallet(ctx, &domain.Wallet{UserID: "u1", BalanceFc: fc("42")})
	})
	require.NoError(t, err)

	w, err := store.GetWallet(ctx, "u1")
	require.NoError(t, err)
	requireFC(t, "42", w.BalanceFc)
}

func TestMemStoreReadersWaitForOpenUnit(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.CreateWallet(ctx, &domain.Wallet{
		UserID:    "u1",
		BalanceFc: fc("100"),
	}))

	boom := errors.New("boom")
	midUnit := make(chan struct{})
	release := make(chan struct{})
	unitErr := make(chan error, 1)
	go func() {
		unitErr <- store.Atomically(ctx, func(tx Store) error {
			w, err := tx.GetWallet(ctx, "u1")
			if err != nil {
				return err
			}
			w.BalanceFc = fc("0")
			if err := tx.SaveWallet(ctx, w); err != nil {
				return err
			}
			close(midUnit)
			<-release
			return boom
		})
	}()

	<-midUnit
	type read struct {
		wallet *domain.Wallet
		err    error
	}
	observed := make(chan read, 1)
	go func() {
		// Issued while the unit is parked mid-transfer; must wait for the
		// unit to finish rather than see its uncommitted write
		w, err := store.GetWallet(ctx, "u1")
		observed <- read{wallet: w, err: err}
	}()
	close(release)
	require.ErrorIs(t, <-unitErr, boom)

	// The unit rolled back, so the only balance a reader may ever see is
	// the pre-unit one
	got := <-observed
	require.NoError(t, got.err)
	requireFC(t, "100", got.wallet.BalanceFc)
}

func TestMemStoreIdempotencyKeyIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	rec := &domain.IdempotencyRecord{Key: "k1", RequestHash: "h1", ResponseBody: []byte("{}")}
	require.NoError(t, store.PutIdempotencyRecord(ctx, rec))

	err := store.PutIdempotencyRecord(ctx, &domain.IdempotencyRecord{Key: "k1", RequestHash: "h2"})
	require.Error(t, err)

	got, err := store.GetIdempotencyRecord(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, "h1", got.RequestHash)
}
