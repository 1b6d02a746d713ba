package api

import (
	"errors"
	"net/http"

	"fundchain_ledger/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// statusFor maps each business-rule rejection to its HTTP status. Anything
// unmapped is a system fault and must not leak internals verbatim.
var statusFor = []struct {
	err    error
	status int
}{
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrUnauthorized, http.StatusForbidden},
	{domain.ErrIdempotencyConflict, http.StatusConflict},
	{domain.ErrInvalidAmount, http.StatusBadRequest},
	{domain.ErrInsufficientFunds, http.StatusBadRequest},
	{domain.ErrCampaignNotAcceptingFunds, http.StatusBadRequest},
	{domain.ErrMilestoneAlreadyCompleted, http.StatusBadRequest},
	{domain.ErrConsensusNotApproved, http.StatusBadRequest},
	{domain.ErrNoUpdatesPosted, http.StatusBadRequest},
	{domain.ErrInsufficientEscrowBalance, http.StatusBadRequest},
	{domain.ErrCampaignNotRefundable, http.StatusBadRequest},
	{domain.ErrNoConfirmedInvestments, http.StatusBadRequest},
}

// respondLedgerError renders a ledger failure in the shared error shape
// {success:false, error, details}. Business rejections return the precise
// failing precondition; faults return a generic message with the detail in
// details only.
func respondLedgerError(c *gin.Context, err error) {
	for _, m := range statusFor {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{
				"success": false,
				"error":   m.err.Error(),
				"details": err.Error(),
			})
			return
		}
	}
	logrus.WithFields(logrus.Fields{
		"path":  c.FullPath(),
		"error": err.Error(),
	}).Error("Ledger operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "Internal server error",
		"details": err.Error(),
	})
}

// callerID returns the authenticated user id set by the JWT middleware
func callerID(c *gin.Context) (string, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
