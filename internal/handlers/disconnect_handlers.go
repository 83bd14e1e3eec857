package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authenticas/authenticas-api/internal/disconnect"
	"github.com/authenticas/authenticas-api/internal/middleware"
	"github.com/authenticas/authenticas-api/internal/models"
)

type CreateDisconnectInput struct {
	CompanyID  string  `json:"companyId" binding:"required"`
	RetailerID string  `json:"retailerId" binding:"required"`
	Reason     *string `json:"reason"`
}

// CreateDisconnectRequest is the handler for POST /api/disconnect-requests.
func (h *Handlers) CreateDisconnectRequest(c *gin.Context) {
	var input CreateDisconnectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "companyId and retailerId are required")
		return
	}

	p := middleware.PrincipalFrom(c)
	request, err := h.Disconnect.Create(p, input.CompanyID, input.RetailerID, input.Reason)
	if err != nil {
		h.disconnectError(c, err, "Failed to create disconnect request")
		return
	}

	respondOK(c, http.StatusCreated, request, "Disconnect request submitted")
}

// GetDisconnectRequests is the handler for GET /api/disconnect-requests. The
// platform operator sees all requests; retailer and company roles see their
// own side.
func (h *Handlers) GetDisconnectRequests(c *gin.Context) {
	p := middleware.PrincipalFrom(c)

	var (
		requests []models.DisconnectRequest
		err      error
	)
	switch p.Role {
	case models.RoleSystemAdmin:
		requests, err = h.Disconnect.All()
	case models.RoleRetailerAdmin:
		if p.RetailerID == nil {
			respondError(c, http.StatusForbidden, "No retailer associated with this user.")
			return
		}
		requests, err = h.Disconnect.ForRetailer(*p.RetailerID)
	case models.RoleCompanyAdmin:
		if p.CompanyID == nil {
			respondError(c, http.StatusForbidden, "No company associated with this user.")
			return
		}
		requests, err = h.Disconnect.ForCompany(*p.CompanyID)
	default:
		respondError(c, http.StatusForbidden, "Access denied.")
		return
	}
	if err != nil {
		h.serverError(c, err, "Failed to fetch disconnect requests")
		return
	}

	respondOK(c, http.StatusOK, requests, "")
}

// GetDisconnectRequest is the handler for GET /api/disconnect-requests/:id.
func (h *Handlers) GetDisconnectRequest(c *gin.Context) {
	request, err := h.Disconnect.ByID(c.Param("id"))
	if err != nil {
		h.disconnectError(c, err, "Failed to fetch disconnect request")
		return
	}

	p := middleware.PrincipalFrom(c)
	allowed := p.Role == models.RoleSystemAdmin ||
		(p.Role == models.RoleRetailerAdmin && p.InRetailer(request.RetailerID)) ||
		(p.Role == models.RoleCompanyAdmin && p.InCompany(request.CompanyID))
	if !allowed {
		respondError(c, http.StatusForbidden, "Access denied.")
		return
	}

	respondOK(c, http.StatusOK, request, "")
}

// ApproveDisconnectRequest is the handler for POST /api/disconnect-requests/:id/approve.
func (h *Handlers) ApproveDisconnectRequest(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	request, err := h.Disconnect.Approve(p, c.Param("id"))
	if err != nil {
		h.disconnectError(c, err, "Failed to approve disconnect request")
		return
	}
	respondOK(c, http.StatusOK, request, "Disconnect request approved")
}

// RejectDisconnectRequest is the handler for POST /api/disconnect-requests/:id/reject.
func (h *Handlers) RejectDisconnectRequest(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	request, err := h.Disconnect.Reject(p, c.Param("id"))
	if err != nil {
		h.disconnectError(c, err, "Failed to reject disconnect request")
		return
	}
	respondOK(c, http.StatusOK, request, "Disconnect request rejected")
}

// disconnectError maps workflow errors onto HTTP statuses.
func (h *Handlers) disconnectError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, disconnect.ErrForbidden):
		respondError(c, http.StatusForbidden, "Access denied.")
	case errors.Is(err, disconnect.ErrCompanyNotFound):
		respondError(c, http.StatusNotFound, "Company not found")
	case errors.Is(err, disconnect.ErrRequestNotFound):
		respondError(c, http.StatusNotFound, "Disconnect request not found")
	case errors.Is(err, disconnect.ErrNotLinked):
		respondError(c, http.StatusBadRequest, "Company is not connected to this retailer")
	case errors.Is(err, disconnect.ErrPendingExists):
		respondError(c, http.StatusBadRequest, "A pending disconnect request already exists for this retailer")
	case errors.Is(err, disconnect.ErrAlreadyProcessed):
		respondError(c, http.StatusBadRequest, "Disconnect request has already been processed")
	default:
		h.serverError(c, err, fallback)
	}
}
