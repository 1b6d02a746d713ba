package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fundchain_ledger/internal/domain"
)

// Consensus verdicts for a milestone vote tally
const (
	ConsensusPending  = "pending"
	ConsensusApproved = "approved"
	ConsensusRejected = "rejected"
)

// A milestone is approved when at least 60% of the invested weight voted
// approve, and rejected when at least 40% voted reject. Anything else is
// still pending. A tally with no votes is always pending.
var (
	approvalThresholdPct  = decimal.NewFromInt(60)
	rejectionThresholdPct = decimal.NewFromInt(40)
)

// VoteStats is the observable tally for a milestone
type VoteStats struct {
	TotalVotes          int             `json:"totalVotes"`
	ApprovalCount       int             `json:"approvalCount"`
	RejectionCount      int             `json:"rejectionCount"`
	TotalWeight         decimal.Decimal `json:"totalWeight"`
	ApproveWeight       decimal.Decimal `json:"approveWeight"`
	RejectWeight        decimal.Decimal `json:"rejectWeight"`
	ApprovalPercentage  int64           `json:"approvalPercentage"`
	RejectionPercentage int64           `json:"rejectionPercentage"`
	Consensus           string          `json:"consensus"`
}

// TallyVotes aggregates votes into the consensus verdict. Weights were
// frozen when each vote was cast, so the tally is stable under later
// investments.
func TallyVotes(votes []domain.MilestoneVote) VoteStats {
	stats := VoteStats{
		TotalVotes:    len(votes),
		TotalWeight:   decimal.Zero,
		ApproveWeight: decimal.Zero,
		RejectWeight:  decimal.Zero,
		Consensus:     ConsensusPending,
	}
	for _, v := range votes {
		stats.TotalWeight = stats.TotalWeight.Add(v.InvestmentWeightFc)
		if v.Approve {
			stats.ApprovalCount++
			stats.ApproveWeight = stats.ApproveWeight.Add(v.InvestmentWeightFc)
		} else {
			stats.RejectionCount++
			stats.RejectWeight = stats.RejectWeight.Add(v.InvestmentWeightFc)
		}
	}
	if !stats.TotalWeight.IsPositive() {
		return stats
	}

	hundred := decimal.NewFromInt(100)
	approvalPct := stats.ApproveWeight.Mul(hundred).Div(stats.TotalWeight)
	rejectionPct := stats.RejectWeight.Mul(hundred).Div(stats.TotalWeight)
	stats.ApprovalPercentage = approvalPct.Round(0).IntPart()
	stats.RejectionPercentage = rejectionPct.Round(0).IntPart()

	switch {
	case approvalPct.GreaterThanOrEqual(approvalThresholdPct):
		stats.Consensus = ConsensusApproved
	case rejectionPct.GreaterThanOrEqual(rejectionThresholdPct):
		stats.Consensus = ConsensusRejected
	}
	return stats
}

// CastVoteInput is an investor's verdict on a milestone
type CastVoteInput struct {
	MilestoneID string
	InvestorID  string
	Approve     bool
}

// CastVote upserts the caller's vote on a milestone. The vote weight is the
// caller's confirmed investment total in the campaign at cast time; a
// re-vote overwrites the verdict and refreezes the weight. Callers without
// a confirmed investment cannot vote.
func (s *Service) CastVote(ctx context.Context, in CastVoteInput) (*domain.MilestoneVote, error) {
	var vote *domain.MilestoneVote
	err := s.store.Atomically(ctx, func(tx Store) error {
		milestone, err := tx.GetMilestone(ctx, in.MilestoneID)
		if err != nil {
			return err
		}
		if milestone.IsCompleted {
			return domain.ErrMilestoneAlreadyCompleted
		}

		weight, err := tx.SumConfirmedInvestments(ctx, milestone.CampaignID, in.InvestorID)
		if err != nil {
			return err
		}
		if !weight.IsPositive() {
			return fmt.Errorf("investor %s has no stake in campaign %s: %w",
				in.InvestorID, milestone.CampaignID, domain.ErrNoConfirmedInvestments)
		}

		existing, err := tx.GetVote(ctx, in.MilestoneID, in.InvestorID)
		switch {
		case err == nil:
			existing.Approve = in.Approve
			existing.InvestmentWeightFc = weight
			vote = existing
		case errors.Is(err, domain.ErrNotFound):
			vote = &domain.MilestoneVote{
				MilestoneID:        in.MilestoneID,
				InvestorID:         in.InvestorID,
				CampaignID:         milestone.CampaignID,
				Approve:            in.Approve,
				InvestmentWeightFc: weight,
			}
		default:
			return err
		}
		return tx.SaveVote(ctx, vote)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"milestone_id": in.MilestoneID,
		"investor_id":  in.InvestorID,
		"approve":      in.Approve,
		"weight_fc":    vote.InvestmentWeightFc,
	}).Info("Milestone vote cast")
	return vote, nil
}

// UserVote returns the caller's vote on a milestone, if any
func (s *Service) UserVote(ctx context.Context, milestoneID, investorID string) (*domain.MilestoneVote, error) {
	return s.store.GetVote(ctx, milestoneID, investorID)
}

// VoteStats tallies the milestone's votes from a consistent snapshot
func (s *Service) VoteStats(ctx context.Context, milestoneID string) (*VoteStats, error) {
	if _, err := s.store.GetMilestone(ctx, milestoneID); err != nil {
		return nil, err
	}
	votes, err := s.store.ListVotes(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	stats := TallyVotes(votes)
	return &stats, nil
}
