package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authenticas/authenticas-api/internal/engine"
	"github.com/authenticas/authenticas-api/internal/models"
)

// VerifyPurchaseInput is the inbound verification body. The engine does the
// semantic validation so that every rejection reason is produced in one place.
type VerifyPurchaseInput struct {
	UserID     string  `json:"userId"`
	CompanyID  string  `json:"companyId"`
	RetailerID string  `json:"retailerId"`
	Amount     float64 `json:"amount"`
}

// VerifyPurchase is the handler for POST /verifyPurchase.
//
// Response bodies are flat (no envelope): approved and limit_exceeded
// outcomes carry the budget figures, every denial carries its reason.
func (h *Handlers) VerifyPurchase(c *gin.Context) {
	var input VerifyPurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId, companyId, retailerId and a numeric amount are required"})
		return
	}

	result, err := h.Engine.Verify(c.Request.Context(), engine.VerifyRequest{
		UserID:     input.UserID,
		CompanyID:  input.CompanyID,
		RetailerID: input.RetailerID,
		Amount:     input.Amount,
	})
	if err != nil {
		var validation *engine.ValidationError
		if errors.As(err, &validation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
			return
		}
		h.Logger.WithError(err).Error("verification failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify purchase"})
		return
	}

	if result.Status == models.TransactionApproved {
		c.JSON(http.StatusOK, gin.H{
			"transactionId":   result.TransactionID,
			"status":          result.Status,
			"amount":          result.Amount,
			"spentThisMonth":  result.SpentThisMonth,
			"spendingLimit":   result.SpendingLimit,
			"remainingBudget": result.RemainingBudget,
		})
		return
	}

	body := gin.H{
		"transactionId": result.TransactionID,
		"status":        result.Status,
		"reason":        result.Reason,
	}
	if result.IncludeBudget {
		body["spentThisMonth"] = result.SpentThisMonth
		body["spendingLimit"] = result.SpendingLimit
		body["remainingBudget"] = result.RemainingBudget
	}
	c.JSON(statusForReason(result.Reason), body)
}

// statusForReason maps denial reasons to HTTP statuses: missing entities are
// 404, policy refusals are 403.
func statusForReason(reason models.DenialReason) int {
	switch reason {
	case models.ReasonRetailerNotFound, models.ReasonCompanyNotFound, models.ReasonUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusForbidden
	}
}
