package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundchain_ledger/internal/domain"
)

func TestInvestMovesBalanceIntoEscrow(t *testing.T) {
	f := newFixture(t)

	res := f.invest(t, f.investorA, "1000")

	requireFC(t, "4000", res.NewBalance.BalanceFc)
	requireFC(t, "1000", res.NewBalance.LockedFc)
	requireFC(t, "1000", res.CampaignWallet.EscrowBalanceFc)
	requireFC(t, "0", res.CampaignWallet.ReleasedFc)
	assert.Equal(t, domain.InvestmentStatusConfirmed, res.Investment.Status)

	wallet := f.wallet(t, f.investorA)
	requireFC(t, "4000", wallet.BalanceFc)
	requireFC(t, "1000", wallet.LockedFc)
	requireFC(t, "1000", f.platform(t).LockedFc)

	campaign, err := f.store.GetCampaign(f.ctx, f.campaignID)
	require.NoError(t, err)
	requireFC(t, "1000", campaign.TotalRaisedFc)

	txs := f.store.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TxTypeInvest, txs[0].Type)
	assert.Equal(t, f.investorA, txs[0].UserID)
	requireFC(t, "1000", txs[0].AmountFc)
}

func TestInvestInsufficientFunds(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Invest(f.ctx, InvestInput{
		UserID:     f.investorA,
		CampaignID: f.campaignID,
		AmountFc:   fc("5000.00000001"),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Nothing moved
	wallet := f.wallet(t, f.investorA)
	requireFC(t, "5000", wallet.BalanceFc)
	requireFC(t, "0", wallet.LockedFc)
	assert.Empty(t, f.store.Transactions())
}

func TestInvestRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)

	for _, amount := range []string{"0", "-5"} {
		_, err := f.svc.Invest(f.ctx, InvestInput{
			UserID:     f.investorA,
			CampaignID: f.campaignID,
			AmountFc:   fc(amount),
		})
		require.ErrorIs(t, err, domain.ErrInvalidAmount, "amount %s", amount)
	}
}

func TestInvestRequiresActiveCampaign(t *testing.T) {
	f := newFixture(t)
	for _, status := range []string{
		domain.CampaignStatusDraft,
		domain.CampaignStatusFunded,
		domain.CampaignStatusFailed,
		domain.CampaignStatusCancelled,
	} {
		campaign, err := f.store.GetCampaign(f.ctx, f.campaignID)
		require.NoError(t, err)
		campaign.Status = status
		require.NoError(t, f.store.SaveCampaign(f.ctx, campaign))

		_, err = f.svc.Invest(f.ctx, InvestInput{
			UserID:     f.investorA,
			CampaignID: f.campaignID,
			AmountFc:   fc("100"),
		})
		require.ErrorIs(t, err, domain.ErrCampaignNotAcceptingFunds, "status %s", status)
	}
}

func TestInvestUnknownCampaign(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Invest(f.ctx, InvestInput{
		UserID:     f.investorA,
		CampaignID: "no-such-campaign",
		AmountFc:   fc("100"),
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvestIdempotentReplay(t *testing.T) {
	f := newFixture(t)
	in := InvestInput{
		UserID:         f.investorA,
		CampaignID:     f.campaignID,
		AmountFc:       fc("250"),
		IdempotencyKey: "retry-key-1",
	}

	first, err := f.svc.Invest(f.ctx, in)
	require.NoError(t, err)

	// Same key, same request: replay without applying again
	second, err := f.svc.Invest(f.ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.Investment.ID, second.Investment.ID)
	requireFC(t, "4750", second.NewBalance.BalanceFc)

	wallet := f.wallet(t, f.investorA)
	requireFC(t, "4750", wallet.BalanceFc)
	requireFC(t, "250", wallet.LockedFc)
	requireFC(t, "250", f.campaignWallet(t).EscrowBalanceFc)
	require.Len(t, f.store.Transactions(), 1)
}

func TestInvestIdempotencyKeyReuseConflict(t *testing.T) {
	f := newFixture(t)
	in := InvestInput{
		UserID:         f.investorA,
		CampaignID:     f.campaignID,
		AmountFc:       fc("250"),
		IdempotencyKey: "retry-key-1",
	}
	_, err := f.svc.Invest(f.ctx, in)
	require.NoError(t, err)

	// Same key with a different amount is a conflict, not a replay
	in.AmountFc = fc("300")
	_, err = f.svc.Invest(f.ctx, in)
	require.ErrorIs(t, err, domain.ErrIdempotencyConflict)

	wallet := f.wallet(t, f.investorA)
	requireFC(t, "4750", wallet.BalanceFc)
}

func TestInvestRepeatedAccumulates(t *testing.T) {
	f := newFixture(t)

	f.invest(t, f.investorA, "600")
	f.invest(t, f.investorB, "400")
	f.invest(t, f.investorA, "100")

	requireFC(t, "1100", f.campaignWallet(t).EscrowBalanceFc)
	requireFC(t, "1100", f.platform(t).LockedFc)

	total, err := f.store.SumConfirmedInvestments(f.ctx, f.campaignID, f.investorA)
	require.NoError(t, err)
	requireFC(t, "700", total)
}
