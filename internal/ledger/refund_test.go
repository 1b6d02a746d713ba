package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundchain_ledger/internal/domain"
)

func TestRefundReturnsFullEscrow(t *testing.T) {
	f := newFixture(t)
	f.invest(t, f.investorA, "1200")
	f.invest(t, f.investorB, "800")

	res, err := f.svc.Refund(f.ctx, RefundInput{
		AdminID:    f.adminID,
		CampaignID: f.campaignID,
		Reason:     "Campaign cancelled by creator",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RefundedCount)
	requireFC(t, "2000", res.TotalRefund)

	// Both investors are made whole
	a := f.wallet(t, f.investorA)
	requireFC(t, "5000", a.BalanceFc)
	requireFC(t, "0", a.LockedFc)
	b := f.wallet(t, f.investorB)
	requireFC(t, "5000", b.BalanceFc)
	requireFC(t, "0", b.LockedFc)

	requireFC(t, "0", f.campaignWallet(t).EscrowBalanceFc)
	requireFC(t, "0", f.platform(t).LockedFc)

	campaign, err := f.store.GetCampaign(f.ctx, f.campaignID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusFailed, campaign.Status)

	for _, inv := range f.store.Investments() {
		assert.Equal(t, domain.InvestmentStatusRefunded, inv.Status)
		require.NotNil(t, inv.RefundAmountFc)
		assert.Equal(t, "Campaign cancelled by creator", inv.RefundReason)
		assert.NotNil(t, inv.RefundedAt)
	}

	txs := f.store.Transactions()
	require.Len(t, txs, 4) // two investments plus two refunds
	assert.Equal(t, domain.TxTypeRefund, txs[2].Type)
	assert.Equal(t, domain.TxTypeRefund, txs[3].Type)
}

func TestRefundProRataAfterPartialRelease(t *testing.T) {
	f := newFixture(t)
	f.invest(t, f.investorA, "600")
	f.invest(t, f.investorB, "400")
	f.vote(t, f.investorA, true)
	f.vote(t, f.investorB, true)
	f.postUpdate()
	_, err := f.svc.Release(f.ctx, ReleaseInput{
		AdminID:     f.adminID,
		CampaignID:  f.campaignID,
		MilestoneID: f.milestoneID,
		AmountFc:    fc("500"),
	})
	require.NoError(t, err)

	res, err := f.svc.Refund(f.ctx, RefundInput{
		AdminID:    f.adminID,
		CampaignID: f.campaignID,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RefundedCount)
	requireFC(t, "500", res.TotalRefund)

	// 600/1000 of the remaining 500 escrow, last investor takes the rest
	a := f.wallet(t, f.investorA)
	requireFC(t, "4700", a.BalanceFc) // 4400 spendable + 300 share
	requireFC(t, "0", a.LockedFc)
	b := f.wallet(t, f.investorB)
	requireFC(t, "4800", b.BalanceFc) // 4600 spendable + 200 share
	requireFC(t, "0", b.LockedFc)

	requireFC(t, "0", f.campaignWallet(t).EscrowBalanceFc)

	for _, inv := range f.store.Investments() {
		assert.Equal(t, "Campaign failed", inv.RefundReason)
	}
}

func TestRefundAlreadyFailedCampaign(t *testing.T) {
	f := newFixture(t)
	f.invest(t, f.investorA, "100")
	_, err := f.svc.Refund(f.ctx, RefundInput{AdminID: f.adminID, CampaignID: f.campaignID})
	require.NoError(t, err)

	_, err = f.svc.Refund(f.ctx, RefundInput{AdminID: f.adminID, CampaignID: f.campaignID})
	require.ErrorIs(t, err, domain.ErrCampaignNotRefundable)
}

func TestRefundWithoutInvestments(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Refund(f.ctx, RefundInput{AdminID: f.adminID, CampaignID: f.campaignID})
	require.ErrorIs(t, err, domain.ErrNoConfirmedInvestments)
}

func TestRefundRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	f.invest(t, f.investorA, "100")

	_, err := f.svc.Refund(f.ctx, RefundInput{AdminID: f.creatorID, CampaignID: f.campaignID})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	// Rejection rolled everything back
	requireFC(t, "100", f.wallet(t, f.investorA).LockedFc)
	requireFC(t, "100", f.campaignWallet(t).EscrowBalanceFc)
}

func TestRefundUnknownAdminIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.invest(t, f.investorA, "100")

	_, err := f.svc.Refund(f.ctx, RefundInput{AdminID: "no-such-admin", CampaignID: f.campaignID})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAllocateRefundsFullCoverage(t *testing.T) {
	invs := []domain.Investment{
		{AmountFc: fc("600")},
		{AmountFc: fc("400")},
	}
	shares := allocateRefunds(invs, fc("1000"), fc("1000"))
	requireFC(t, "600", shares[0])
	requireFC(t, "400", shares[1])
}

func TestAllocateRefundsProRataSumsToEscrow(t *testing.T) {
	invs := []domain.Investment{
		{AmountFc: fc("100")},
		{AmountFc: fc("100")},
		{AmountFc: fc("100")},
	}
	// 100/3 does not divide evenly at 8 decimals; the remainder lands on
	// the last share so the total is exact
	shares := allocateRefunds(invs, fc("300"), fc("100"))
	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s)
	}
	requireFC(t, "100", total)
	requireFC(t, "33.33333333", shares[0])
	requireFC(t, "33.33333333", shares[1])
	requireFC(t, "33.33333334", shares[2])
}

func TestAllocateRefundsEmptyEscrow(t *testing.T) {
	invs := []domain.Investment{{AmountFc: fc("500")}}
	shares := allocateRefunds(invs, fc("500"), decimal.Zero)
	requireFC(t, "0", shares[0])
}
