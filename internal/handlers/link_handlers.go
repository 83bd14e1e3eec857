package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authenticas/authenticas-api/internal/links"
	"github.com/authenticas/authenticas-api/internal/middleware"
	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
)

type CreateLinkInput struct {
	CompanyID  string `json:"companyId" binding:"required"`
	RetailerID string `json:"retailerId" binding:"required"`
}

// CreateLink is the handler for POST /api/links. Both parties must exist
// before a link is written; linking never edits the party records themselves.
func (h *Handlers) CreateLink(c *gin.Context) {
	var input CreateLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "companyId and retailerId are required")
		return
	}

	if _, err := store.FindByID[models.Company](h.Store, store.Companies, input.CompanyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Company not found")
			return
		}
		h.serverError(c, err, "Failed to create link")
		return
	}
	if _, err := store.FindByID[models.Retailer](h.Store, store.Retailers, input.RetailerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Retailer not found")
			return
		}
		h.serverError(c, err, "Failed to create link")
		return
	}

	link, err := h.Links.Create(input.CompanyID, input.RetailerID)
	if errors.Is(err, links.ErrAlreadyLinked) {
		respondError(c, http.StatusBadRequest, "Company and retailer are already linked")
		return
	}
	if err != nil {
		h.serverError(c, err, "Failed to create link")
		return
	}

	p := middleware.PrincipalFrom(c)
	if _, err := h.Audit.Record(
		models.ActionRetailerLinked, p.UserID, models.TargetLink, link.ID,
		nil, nil,
		map[string]any{"companyId": link.CompanyID, "retailerId": link.RetailerID},
	); err != nil {
		h.serverError(c, err, "Failed to create link")
		return
	}

	respondOK(c, http.StatusCreated, link, "Link created successfully")
}

// GetAllLinks is the handler for GET /api/links.
func (h *Handlers) GetAllLinks(c *gin.Context) {
	all, err := h.Links.All()
	if err != nil {
		h.serverError(c, err, "Failed to fetch links")
		return
	}
	respondOK(c, http.StatusOK, all, "")
}

// CompaniesForRetailer is the handler for GET /api/retailers/:id/companies.
// Retailer administrators may only list their own retailer's companies.
func (h *Handlers) CompaniesForRetailer(c *gin.Context) {
	retailerID := c.Param("id")

	p := middleware.PrincipalFrom(c)
	if p.Role == models.RoleRetailerAdmin && !p.InRetailer(retailerID) {
		respondError(c, http.StatusForbidden, "Access denied. You can only access your own retailer.")
		return
	}

	active, err := h.Links.ActiveForRetailer(retailerID)
	if err != nil {
		h.serverError(c, err, "Failed to fetch linked companies")
		return
	}

	companies := make([]models.Company, 0, len(active))
	for _, link := range active {
		company, err := store.FindByID[models.Company](h.Store, store.Companies, link.CompanyID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			h.serverError(c, err, "Failed to fetch linked companies")
			return
		}
		companies = append(companies, *company)
	}

	respondOK(c, http.StatusOK, companies, "")
}

// RetailersForCompany is the handler for GET /api/companies/:id/retailers.
// Company roles may only list their own company's retailers.
func (h *Handlers) RetailersForCompany(c *gin.Context) {
	companyID := c.Param("id")

	p := middleware.PrincipalFrom(c)
	if (p.Role == models.RoleCompanyAdmin || p.Role == models.RoleCompanyUser) && !p.InCompany(companyID) {
		respondError(c, http.StatusForbidden, "Access denied. You can only access your own company.")
		return
	}

	active, err := h.Links.ActiveForCompany(companyID)
	if err != nil {
		h.serverError(c, err, "Failed to fetch linked retailers")
		return
	}

	retailers := make([]models.Retailer, 0, len(active))
	for _, link := range active {
		retailer, err := store.FindByID[models.Retailer](h.Store, store.Retailers, link.RetailerID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			h.serverError(c, err, "Failed to fetch linked retailers")
			return
		}
		retailers = append(retailers, *retailer)
	}

	respondOK(c, http.StatusOK, retailers, "")
}
