package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundchain_ledger/internal/domain"
)

func vote(approve bool, weight string) domain.MilestoneVote {
	return domain.MilestoneVote{Approve: approve, InvestmentWeightFc: fc(weight)}
}

func TestTallyVotes(t *testing.T) {
	cases := []struct {
		name         string
		votes        []domain.MilestoneVote
		consensus    string
		approvalPct  int64
		rejectionPct int64
	}{
		{
			name:      "no votes is pending",
			votes:     nil,
			consensus: ConsensusPending,
		},
		{
			name:        "unanimous approval",
			votes:       []domain.MilestoneVote{vote(true, "600"), vote(true, "400")},
			consensus:   ConsensusApproved,
			approvalPct: 100,
		},
		{
			name:         "exactly 60 percent approves",
			votes:        []domain.MilestoneVote{vote(true, "600"), vote(false, "400")},
			consensus:    ConsensusApproved,
			approvalPct:  60,
			rejectionPct: 40,
		},
		{
			name:         "majority rejection",
			votes:        []domain.MilestoneVote{vote(true, "300"), vote(false, "700")},
			consensus:    ConsensusRejected,
			approvalPct:  30,
			rejectionPct: 70,
		},
		{
			name:         "even split rejects",
			votes:        []domain.MilestoneVote{vote(true, "500"), vote(false, "500")},
			consensus:    ConsensusRejected,
			approvalPct:  50,
			rejectionPct: 50,
		},
		{
			// Votes are binary, so approval short of 60% always leaves
			// rejection at 40% or more
			name:         "just below the approval threshold rejects",
			votes:        []domain.MilestoneVote{vote(true, "590"), vote(false, "410")},
			consensus:    ConsensusRejected,
			approvalPct:  59,
			rejectionPct: 41,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stats := TallyVotes(tc.votes)
			assert.Equal(t, tc.consensus, stats.Consensus)
			assert.Equal(t, tc.approvalPct, stats.ApprovalPercentage)
			assert.Equal(t, tc.rejectionPct, stats.RejectionPercentage)
			assert.Equal(t, len(tc.votes), stats.TotalVotes)
		})
	}
}

func TestCastVoteRequiresConfirmedInvestment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CastVote(f.ctx, CastVoteInput{
		MilestoneID: f.milestoneID,
		InvestorID:  f.investorA,
		Approve:     true,
	})
	require.ErrorIs(t, err, domain.ErrNoConfirmedInvestments)
}

func TestCastVoteFreezesWeightAtCastTime(t *testing.T) {
	f := newFixture(t)
	f.invest(t, f.investorA, "300")
	f.vote(t, f.investorA, true)

	// A later investment does not shift the already-cast weight
	f.invest(t, f.investorA, "700")

	stats, err := f.svc.VoteStats(f.ctx, f.milestoneID)
	require.NoError(t, err)
	requireFC(t, "300", stats.TotalWeight)
	requireFC(t, "300", stats.ApproveWeight)
}

func TestCastVoteRevoteOverwritesAndRefreezes(t *testing.T) {
	f := newFixture(t)
	f.invest(t, f.investorA, "300")
	f.vote(t, f.investorA, true)
	f.invest(t, f.investorA, "700")

	// Re-vote flips the verdict and picks up the new total stake
	v, err := f.svc.CastVote(f.ctx, CastVoteInput{
		MilestoneID: f.milestoneID,
		InvestorID:  f.investorA,
		Approve:     false,
	})
	require.NoError(t, err)
	requireFC(t, "1000", v.InvestmentWeightFc)

	stats, err := f.svc.VoteStats(f.ctx, f.milestoneID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalVotes)
	assert.Equal(t, 1, stats.RejectionCount)
	requireFC(t, "1000", stats.RejectWeight)
	assert.Equal(t, ConsensusRejected, stats.Consensus)
}

func TestCastVoteOnCompletedMilestone(t *testing.T) {
	f := newFixture(t)
	f.invest(t, f.investorA, "300")

	milestone, err := f.store.GetMilestone(f.ctx, f.milestoneID)
	require.NoError(t, err)
	milestone.IsCompleted = true
	require.NoError(t, f.store.SaveMilestone(f.ctx, milestone))

	_, err = f.svc.CastVote(f.ctx, CastVoteInput{
		MilestoneID: f.milestoneID,
		InvestorID:  f.investorA,
		Approve:     true,
	})
	require.ErrorIs(t, err, domain.ErrMilestoneAlreadyCompleted)
}

func TestUserVoteLookup(t *testing.T) {
	f := newFixture(t)
	f.invest(t, f.investorA, "300")
	f.vote(t, f.investorA, true)

	v, err := f.svc.UserVote(f.ctx, f.milestoneID, f.investorA)
	require.NoError(t, err)
	assert.True(t, v.Approve)

	_, err = f.svc.UserVote(f.ctx, f.milestoneID, f.investorB)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
