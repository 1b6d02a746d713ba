package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fundchain_ledger/internal/domain"
)

// InvestInput describes an investor committing FC to a campaign. The
// optional IdempotencyKey makes the operation safe to retry after an
// ambiguous network failure.
type InvestInput struct {
	UserID         string
	CampaignID     string
	AmountFc       decimal.Decimal
	IdempotencyKey string
}

// InvestResult mirrors the invest-in-campaign response contract
type InvestResult struct {
	Investment     domain.Investment `json:"investment"`
	NewBalance     BalancePair       `json:"newBalance"`
	CampaignWallet EscrowSnapshot    `json:"campaignWallet"`
}

// requestHash fingerprints the logical request so a reused idempotency key
// with different parameters is rejected instead of silently replayed
func (in InvestInput) requestHash() string {
	sum := sha256.Sum256([]byte(in.UserID + "|" + in.CampaignID + "|" + in.AmountFc.String()))
	return hex.EncodeToString(sum[:])
}

// Invest moves AmountFc from the investor's spendable balance into their
// locked sub-balance and into the campaign's escrow, records a confirmed
// Investment and appends one invest_fc transaction. The whole movement is
// a single atomic unit; concurrent investments into the same campaign
// serialize on the campaign wallet row.
func (s *Service) Invest(ctx context.Context, in InvestInput) (*InvestResult, error) {
	if !in.AmountFc.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var result InvestResult
	err := s.store.Atomically(ctx, func(tx Store) error {
		// Replay check first: a previously-applied transfer with the same
		// key is a no-op returning the original result.
		if in.IdempotencyKey != "" {
			rec, err := tx.GetIdempotencyRecord(ctx, in.IdempotencyKey)
			if err == nil {
				if rec.RequestHash != in.requestHash() {
					return domain.ErrIdempotencyConflict
				}
				return json.Unmarshal(rec.ResponseBody, &result)
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}

		campaign, err := tx.GetCampaign(ctx, in.CampaignID)
		if err != nil {
			return err
		}
		if campaign.Status != domain.CampaignStatusActive {
			return fmt.Errorf("campaign is %s: %w", campaign.Status, domain.ErrCampaignNotAcceptingFunds)
		}

		wallet, err := tx.GetWallet(ctx, in.UserID)
		if err != nil {
			return err
		}
		if wallet.BalanceFc.LessThan(in.AmountFc) {
			return fmt.Errorf("available %s, required %s: %w",
				wallet.BalanceFc, in.AmountFc, domain.ErrInsufficientFunds)
		}

		// Investor: spendable -> locked
		wallet.BalanceFc = wallet.BalanceFc.Sub(in.AmountFc)
		wallet.LockedFc = wallet.LockedFc.Add(in.AmountFc)
		if err := tx.SaveWallet(ctx, wallet); err != nil {
			return err
		}

		// Platform locked pool mirrors all in-escrow funds
		platform, err := tx.GetPlatformWallet(ctx)
		if err != nil {
			return err
		}
		platform.LockedFc = platform.LockedFc.Add(in.AmountFc)
		if err := tx.SavePlatformWallet(ctx, platform); err != nil {
			return err
		}

		// Campaign escrow, created lazily on the first investment
		cw, err := tx.GetCampaignWallet(ctx, in.CampaignID)
		if errors.Is(err, domain.ErrNotFound) {
			cw = &domain.CampaignWallet{CampaignID: in.CampaignID, EscrowBalanceFc: decimal.Zero, ReleasedFc: decimal.Zero}
			if err := tx.CreateCampaignWallet(ctx, cw); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		cw.EscrowBalanceFc = cw.EscrowBalanceFc.Add(in.AmountFc)
		if err := tx.SaveCampaignWallet(ctx, cw); err != nil {
			return err
		}

		campaign.TotalRaisedFc = campaign.TotalRaisedFc.Add(in.AmountFc)
		if err := tx.SaveCampaign(ctx, campaign); err != nil {
			return err
		}

		inv := domain.Investment{
			CampaignID: in.CampaignID,
			InvestorID: in.UserID,
			AmountFc:   in.AmountFc,
			Status:     domain.InvestmentStatusConfirmed,
		}
		if err := tx.CreateInvestment(ctx, &inv); err != nil {
			return err
		}

		meta, _ := json.Marshal(map[string]any{
			"investment_id": inv.ID,
			"timestamp":     time.Now().UTC().Format(time.RFC3339),
		})
		if err := tx.AppendTransaction(ctx, &domain.TokenTransaction{
			UserID:     in.UserID,
			CampaignID: &inv.CampaignID,
			Type:       domain.TxTypeInvest,
			AmountFc:   in.AmountFc,
			Metadata:   string(meta),
		}); err != nil {
			return err
		}

		result = InvestResult{
			Investment:     inv,
			NewBalance:     BalancePair{BalanceFc: wallet.BalanceFc, LockedFc: wallet.LockedFc},
			CampaignWallet: EscrowSnapshot{EscrowBalanceFc: cw.EscrowBalanceFc, ReleasedFc: cw.ReleasedFc},
		}

		if in.IdempotencyKey != "" {
			body, err := json.Marshal(result)
			if err != nil {
				return err
			}
			return tx.PutIdempotencyRecord(ctx, &domain.IdempotencyRecord{
				Key:          in.IdempotencyKey,
				RequestHash:  in.requestHash(),
				ResponseBody: body,
			})
		}
		return nil
	})
	if err != nil {
		s.logFailure("Investment rejected", err, logrus.Fields{
			"user_id":     in.UserID,
			"campaign_id": in.CampaignID,
			"amount_fc":   in.AmountFc,
		})
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":       in.UserID,
		"campaign_id":   in.CampaignID,
		"amount_fc":     in.AmountFc,
		"investment_id": result.Investment.ID,
		"type":          domain.TxTypeInvest,
	}).Info("Investment confirmed")
	return &result, nil
}
