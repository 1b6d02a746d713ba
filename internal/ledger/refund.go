package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fundchain_ledger/internal/domain"
)

// RefundInput is an admin returning a campaign's escrow to its investors
type RefundInput struct {
	AdminID    string
	CampaignID string
	Reason     string
}

// RefundResult mirrors the refund-campaign-investors response contract
type RefundResult struct {
	Message       string          `json:"message"`
	RefundedCount int             `json:"refundedCount"`
	TotalRefund   decimal.Decimal `json:"totalRefund"`
}

// Refund returns the campaign's remaining escrow to every confirmed
// investor and marks the campaign failed. When part of the escrow was
// already released to the creator, each investor receives a pro-rata share
// of what remains, with the rounding remainder assigned to the last
// investor so the escrow lands on exactly zero. The entire refund is one
// atomic unit: either every investor is refunded or none is.
func (s *Service) Refund(ctx context.Context, in RefundInput) (*RefundResult, error) {
	reason := in.Reason
	if reason == "" {
		reason = "Campaign failed"
	}

	var result RefundResult
	err := s.store.Atomically(ctx, func(tx Store) error {
		if _, err := s.requireAdmin(ctx, tx, in.AdminID); err != nil {
			return err
		}

		campaign, err := tx.GetCampaign(ctx, in.CampaignID)
		if err != nil {
			return err
		}
		if campaign.Status == domain.CampaignStatusFailed || campaign.Status == domain.CampaignStatusCancelled {
			return fmt.Errorf("campaign is already %s: %w", campaign.Status, domain.ErrCampaignNotRefundable)
		}

		investments, err := tx.ListConfirmedInvestments(ctx, in.CampaignID)
		if err != nil {
			return err
		}
		if len(investments) == 0 {
			return domain.ErrNoConfirmedInvestments
		}

		confirmedTotal := decimal.Zero
		for _, inv := range investments {
			confirmedTotal = confirmedTotal.Add(inv.AmountFc)
		}

		cw, err := tx.GetCampaignWallet(ctx, in.CampaignID)
		if err != nil {
			return err
		}
		shares := allocateRefunds(investments, confirmedTotal, cw.EscrowBalanceFc)

		now := time.Now().UnixMilli()
		totalRefund := decimal.Zero
		for i := range investments {
			inv := &investments[i]
			share := shares[i]

			wallet, err := tx.GetWallet(ctx, inv.InvestorID)
			if err != nil {
				return fmt.Errorf("investor %s: %w", inv.InvestorID, err)
			}
			// The full invested amount unlocks; only the unreleased share
			// comes back as spendable balance.
			wallet.LockedFc = decimal.Max(wallet.LockedFc.Sub(inv.AmountFc), decimal.Zero)
			wallet.BalanceFc = wallet.BalanceFc.Add(share)
			if err := tx.SaveWallet(ctx, wallet); err != nil {
				return err
			}

			inv.Status = domain.InvestmentStatusRefunded
			inv.RefundAmountFc = &share
			inv.RefundReason = reason
			inv.RefundedAt = &now
			if err := tx.SaveInvestment(ctx, inv); err != nil {
				return err
			}

			meta, _ := json.Marshal(map[string]any{
				"refunded_by":   in.AdminID,
				"investment_id": inv.ID,
				"reason":        reason,
			})
			if err := tx.AppendTransaction(ctx, &domain.TokenTransaction{
				UserID:     inv.InvestorID,
				CampaignID: &inv.CampaignID,
				Type:       domain.TxTypeRefund,
				AmountFc:   share,
				Metadata:   string(meta),
			}); err != nil {
				return err
			}
			totalRefund = totalRefund.Add(share)
		}

		cw.EscrowBalanceFc = cw.EscrowBalanceFc.Sub(totalRefund)
		if err := tx.SaveCampaignWallet(ctx, cw); err != nil {
			return err
		}

		platform, err := tx.GetPlatformWallet(ctx)
		if err != nil {
			return err
		}
		platform.LockedFc = decimal.Max(platform.LockedFc.Sub(totalRefund), decimal.Zero)
		if err := tx.SavePlatformWallet(ctx, platform); err != nil {
			return err
		}

		campaign.Status = domain.CampaignStatusFailed
		if err := tx.SaveCampaign(ctx, campaign); err != nil {
			return err
		}

		result = RefundResult{
			Message:       fmt.Sprintf("Refunded %d investors", len(investments)),
			RefundedCount: len(investments),
			TotalRefund:   totalRefund,
		}
		return nil
	})
	if err != nil {
		s.logFailure("Campaign refund rejected", err, logrus.Fields{
			"admin_id":    in.AdminID,
			"campaign_id": in.CampaignID,
			"reason":      reason,
		})
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"admin_id":        in.AdminID,
		"campaign_id":     in.CampaignID,
		"reason":          reason,
		"refunded_count":  result.RefundedCount,
		"total_refund_fc": result.TotalRefund,
		"type":            domain.TxTypeRefund,
	}).Info("Campaign investors refunded")
	return &result, nil
}

// allocateRefunds splits the remaining escrow across investments. When the
// escrow covers the confirmed total each investor gets their full amount
// back; otherwise shares scale pro-rata, truncated to the FC precision,
// and the last investor absorbs the rounding remainder.
func allocateRefunds(investments []domain.Investment, confirmedTotal, escrow decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(investments))
	if !escrow.IsPositive() || !confirmedTotal.IsPositive() {
		for i := range shares {
			shares[i] = decimal.Zero
		}
		return shares
	}
	if escrow.GreaterThanOrEqual(confirmedTotal) {
		for i, inv := range investments {
			shares[i] = inv.AmountFc
		}
		return shares
	}
	allocated := decimal.Zero
	for i, inv := range investments {
		if i == len(investments)-1 {
			shares[i] = escrow.Sub(allocated)
			break
		}
		share := inv.AmountFc.Mul(escrow).Div(confirmedTotal).Truncate(8)
		shares[i] = share
		allocated = allocated.Add(share)
	}
	return shares
}
