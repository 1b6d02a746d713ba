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

// ReleaseInput is an admin releasing a milestone's payout to the creator
type ReleaseInput struct {
	AdminID     string
	CampaignID  string
	MilestoneID string
	AmountFc    decimal.Decimal
	Notes       string
}

// MilestoneResult mirrors the milestone fields the release contract returns
type MilestoneResult struct {
	ID             string `json:"id"`
	IsCompleted    bool   `json:"is_completed"`
	CompletionDate int64  `json:"completion_date"`
}

// ReleaseResult mirrors the release-milestone-funds response contract
type ReleaseResult struct {
	CampaignWallet EscrowSnapshot  `json:"campaignWallet"`
	CreatorWallet  BalancePair     `json:"creatorWallet"`
	Milestone      MilestoneResult `json:"milestone"`
}

// Release transfers AmountFc from the campaign's escrow to the creator's
// wallet and marks the milestone completed. Every precondition is
// re-checked inside the atomic unit, so a stale admin view can never cause
// a double release or a release without quorum; on any failure no partial
// state change is observable.
func (s *Service) Release(ctx context.Context, in ReleaseInput) (*ReleaseResult, error) {
	if !in.AmountFc.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var result ReleaseResult
	err := s.store.Atomically(ctx, func(tx Store) error {
		if _, err := s.requireAdmin(ctx, tx, in.AdminID); err != nil {
			return err
		}

		campaign, err := tx.GetCampaign(ctx, in.CampaignID)
		if err != nil {
			return err
		}
		if campaign.Status == domain.CampaignStatusFailed || campaign.Status == domain.CampaignStatusCancelled {
			return fmt.Errorf("cannot release funds for %s campaign: %w",
				campaign.Status, domain.ErrCampaignNotAcceptingFunds)
		}

		milestone, err := tx.GetMilestone(ctx, in.MilestoneID)
		if err != nil {
			return err
		}
		if milestone.CampaignID != in.CampaignID {
			return fmt.Errorf("milestone does not belong to campaign %s: %w",
				in.CampaignID, domain.ErrNotFound)
		}
		if milestone.IsCompleted {
			return domain.ErrMilestoneAlreadyCompleted
		}

		// Quorum gate: investor consensus must be exactly approved
		votes, err := tx.ListVotes(ctx, in.MilestoneID)
		if err != nil {
			return err
		}
		if stats := TallyVotes(votes); stats.Consensus != ConsensusApproved {
			return fmt.Errorf("consensus is %s (approval %d%%): %w",
				stats.Consensus, stats.ApprovalPercentage, domain.ErrConsensusNotApproved)
		}

		// Communication gate: the creator must have posted progress
		updates, err := tx.CountCampaignUpdates(ctx, in.CampaignID)
		if err != nil {
			return err
		}
		if updates == 0 {
			return domain.ErrNoUpdatesPosted
		}

		cw, err := tx.GetCampaignWallet(ctx, in.CampaignID)
		if err != nil {
			return err
		}
		if cw.EscrowBalanceFc.LessThan(in.AmountFc) {
			return fmt.Errorf("available %s, required %s: %w",
				cw.EscrowBalanceFc, in.AmountFc, domain.ErrInsufficientEscrowBalance)
		}
		cw.EscrowBalanceFc = cw.EscrowBalanceFc.Sub(in.AmountFc)
		cw.ReleasedFc = cw.ReleasedFc.Add(in.AmountFc)
		if err := tx.SaveCampaignWallet(ctx, cw); err != nil {
			return err
		}

		platform, err := tx.GetPlatformWallet(ctx)
		if err != nil {
			return err
		}
		platform.LockedFc = decimal.Max(platform.LockedFc.Sub(in.AmountFc), decimal.Zero)
		if err := tx.SavePlatformWallet(ctx, platform); err != nil {
			return err
		}

		creatorWallet, err := getOrCreateWallet(ctx, tx, campaign.CreatorID)
		if err != nil {
			return err
		}
		creatorWallet.BalanceFc = creatorWallet.BalanceFc.Add(in.AmountFc)
		if err := tx.SaveWallet(ctx, creatorWallet); err != nil {
			return err
		}

		now := time.Now().UnixMilli()
		milestone.IsCompleted = true
		milestone.CompletionDate = &now
		milestone.CompletionNotes = in.Notes
		if milestone.CompletionNotes == "" {
			milestone.CompletionNotes = "Milestone funds released"
		}
		if err := tx.SaveMilestone(ctx, milestone); err != nil {
			return err
		}

		meta, _ := json.Marshal(map[string]any{
			"approved_by": in.AdminID,
			"notes":       milestone.CompletionNotes,
		})
		if err := tx.AppendTransaction(ctx, &domain.TokenTransaction{
			UserID:      campaign.CreatorID,
			CampaignID:  &milestone.CampaignID,
			MilestoneID: &milestone.ID,
			Type:        domain.TxTypeRelease,
			AmountFc:    in.AmountFc,
			Metadata:    string(meta),
		}); err != nil {
			return err
		}

		result = ReleaseResult{
			CampaignWallet: EscrowSnapshot{EscrowBalanceFc: cw.EscrowBalanceFc, ReleasedFc: cw.ReleasedFc},
			CreatorWallet:  BalancePair{BalanceFc: creatorWallet.BalanceFc, LockedFc: creatorWallet.LockedFc},
			Milestone:      MilestoneResult{ID: milestone.ID, IsCompleted: true, CompletionDate: now},
		}
		return nil
	})
	if err != nil {
		s.logFailure("Milestone release rejected", err, logrus.Fields{
			"admin_id":     in.AdminID,
			"campaign_id":  in.CampaignID,
			"milestone_id": in.MilestoneID,
			"amount_fc":    in.AmountFc,
		})
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"admin_id":     in.AdminID,
		"campaign_id":  in.CampaignID,
		"milestone_id": in.MilestoneID,
		"amount_fc":    in.AmountFc,
		"type":         domain.TxTypeRelease,
	}).Info("Milestone funds released")
	return &result, nil
}
