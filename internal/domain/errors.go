package domain

import "errors"

// Ledger error taxonomy. Business-rule rejections are sentinel values so
// callers can map them to precise HTTP responses; anything else bubbling out
// of the ledger is treated as a system fault.
var (
	ErrNotFound                  = errors.New("not found")
	ErrUnauthorized              = errors.New("unauthorized")
	ErrInvalidAmount             = errors.New("amount must be a positive number")
	ErrInsufficientFunds         = errors.New("insufficient balance")
	ErrCampaignNotAcceptingFunds = errors.New("campaign is not accepting funds")
	ErrMilestoneAlreadyCompleted = errors.New("milestone already completed")
	ErrConsensusNotApproved      = errors.New("investor consensus has not approved this milestone")
	ErrNoUpdatesPosted           = errors.New("campaign has no posted progress updates")
	ErrInsufficientEscrowBalance = errors.New("insufficient escrow balance")
	ErrCampaignNotRefundable     = errors.New("campaign is not eligible for refund")
	ErrNoConfirmedInvestments    = errors.New("no confirmed investments")
	ErrIdempotencyConflict       = errors.New("idempotency key reused with a different request")
)

// IsBusinessError reports whether err is a business-rule rejection rather
// than a system fault. The distinction drives the HTTP status and whether
// the message is shown to the user verbatim.
func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrUnauthorized,
		ErrInvalidAmount,
		ErrInsufficientFunds,
		ErrCampaignNotAcceptingFunds,
		ErrMilestoneAlreadyCompleted,
		ErrConsensusNotApproved,
		ErrNoUpdatesPosted,
		ErrInsufficientEscrowBalance,
		ErrCampaignNotRefundable,
		ErrNoConfirmedInvestments,
		ErrIdempotencyConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
