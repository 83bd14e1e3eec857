package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/authenticas/authenticas-api/internal/auth"
	"github.com/authenticas/authenticas-api/internal/middleware"
	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
)

type CreateCompanyInput struct {
	Name       string  `json:"name" binding:"required"`
	WebhookURL *string `json:"webhookUrl"`
}

type UpdateCompanyInput struct {
	Name       *string `json:"name"`
	WebhookURL *string `json:"webhookUrl"`
	IsActive   *bool   `json:"isActive"`
}

// CreateCompany is the handler for POST /api/companies.
func (h *Handlers) CreateCompany(c *gin.Context) {
	var input CreateCompanyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}

	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		h.serverError(c, err, "Failed to create company")
		return
	}

	now := time.Now()
	company := models.Company{
		ID:         uuid.NewString(),
		Name:       input.Name,
		APIKey:     apiKey,
		WebhookURL: input.WebhookURL,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := store.Append(h.Store, store.Companies, company); err != nil {
		h.serverError(c, err, "Failed to create company")
		return
	}

	p := middleware.PrincipalFrom(c)
	if _, err := h.Audit.Record(
		models.ActionCompanyCreated, p.UserID, models.TargetCompany, company.ID,
		nil, map[string]any{"name": company.Name}, nil,
	); err != nil {
		h.serverError(c, err, "Failed to create company")
		return
	}

	respondOK(c, http.StatusCreated, company, "Company created successfully")
}

// GetAllCompanies is the handler for GET /api/companies.
func (h *Handlers) GetAllCompanies(c *gin.Context) {
	companies, err := store.ReadAll[models.Company](h.Store, store.Companies)
	if err != nil {
		h.serverError(c, err, "Failed to fetch companies")
		return
	}
	respondOK(c, http.StatusOK, companies, "")
}

// GetCompany is the handler for GET /api/companies/:id. Company roles may
// only read their own company.
func (h *Handlers) GetCompany(c *gin.Context) {
	id := c.Param("id")

	p := middleware.PrincipalFrom(c)
	if (p.Role == models.RoleCompanyAdmin || p.Role == models.RoleCompanyUser) && !p.InCompany(id) {
		respondError(c, http.StatusForbidden, "Access denied. You can only access your own company.")
		return
	}

	company, err := store.FindByID[models.Company](h.Store, store.Companies, id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Company not found")
		return
	}
	if err != nil {
		h.serverError(c, err, "Failed to fetch company")
		return
	}
	respondOK(c, http.StatusOK, company, "")
}

// UpdateCompany is the handler for PUT /api/companies/:id.
func (h *Handlers) UpdateCompany(c *gin.Context) {
	var input UpdateCompanyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	id := c.Param("id")
	before, err := store.FindByID[models.Company](h.Store, store.Companies, id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Company not found")
		return
	}
	if err != nil {
		h.serverError(c, err, "Failed to update company")
		return
	}

	updated, err := store.UpdateByID(h.Store, store.Companies, id, func(co *models.Company) {
		if input.Name != nil {
			co.Name = *input.Name
		}
		if input.WebhookURL != nil {
			co.WebhookURL = input.WebhookURL
		}
		if input.IsActive != nil {
			co.IsActive = *input.IsActive
		}
		co.UpdatedAt = time.Now()
	})
	if err != nil {
		h.serverError(c, err, "Failed to update company")
		return
	}

	p := middleware.PrincipalFrom(c)
	if _, err := h.Audit.Record(
		models.ActionCompanyUpdated, p.UserID, models.TargetCompany, id,
		map[string]any{"name": before.Name, "isActive": before.IsActive},
		map[string]any{"name": updated.Name, "isActive": updated.IsActive},
		nil,
	); err != nil {
		h.serverError(c, err, "Failed to update company")
		return
	}

	// A webhook endpoint change gets its own trail entry.
	if input.WebhookURL != nil {
		if _, err := h.Audit.Record(
			models.ActionCompanyWebhookRegistered, p.UserID, models.TargetCompany, id,
			nil, map[string]any{"webhookUrl": *input.WebhookURL}, nil,
		); err != nil {
			h.serverError(c, err, "Failed to update company")
			return
		}
	}

	respondOK(c, http.StatusOK, updated, "Company updated successfully")
}
