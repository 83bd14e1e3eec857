package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/authenticas/authenticas-api/internal/models"
)

// GetAuditTrail is the handler for GET /api/audit. Supports ?limit and
// ?offset; the response carries the page plus the total entry count.
func (h *Handlers) GetAuditTrail(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	if limit < 0 || offset < 0 {
		respondError(c, http.StatusBadRequest, "limit and offset must be non-negative")
		return
	}

	entries, total, err := h.Audit.List(limit, offset)
	if err != nil {
		h.serverError(c, err, "Failed to fetch audit trail")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"entries": entries, "total": total}, "")
}

// GetRecentAudit is the handler for GET /api/audit/recent?count=N.
func (h *Handlers) GetRecentAudit(c *gin.Context) {
	count := intQuery(c, "count", 20)
	if count < 0 {
		respondError(c, http.StatusBadRequest, "count must be non-negative")
		return
	}

	entries, err := h.Audit.Recent(count)
	if err != nil {
		h.serverError(c, err, "Failed to fetch audit trail")
		return
	}

	respondOK(c, http.StatusOK, entries, "")
}

// GetAuditForTarget is the handler for GET /api/audit/target/:type/:id.
func (h *Handlers) GetAuditForTarget(c *gin.Context) {
	targetType := models.AuditTargetType(c.Param("type"))
	entries, err := h.Audit.ForTarget(targetType, c.Param("id"))
	if err != nil {
		h.serverError(c, err, "Failed to fetch audit trail")
		return
	}
	respondOK(c, http.StatusOK, entries, "")
}

// GetAuditByUser is the handler for GET /api/audit/user/:id.
func (h *Handlers) GetAuditByUser(c *gin.Context) {
	entries, err := h.Audit.ByActor(c.Param("id"))
	if err != nil {
		h.serverError(c, err, "Failed to fetch audit trail")
		return
	}
	respondOK(c, http.StatusOK, entries, "")
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return value
}
