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

type CreateRetailerInput struct {
	Name       string  `json:"name" binding:"required"`
	WebhookURL *string `json:"webhookUrl"`
}

type UpdateRetailerInput struct {
	Name       *string `json:"name"`
	WebhookURL *string `json:"webhookUrl"`
	IsActive   *bool   `json:"isActive"`
}

// CreateRetailer is the handler for POST /api/retailers.
func (h *Handlers) CreateRetailer(c *gin.Context) {
	var input CreateRetailerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}

	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		h.serverError(c, err, "Failed to create retailer")
		return
	}

	now := time.Now()
	retailer := models.Retailer{
		ID:         uuid.NewString(),
		Name:       input.Name,
		APIKey:     apiKey,
		WebhookURL: input.WebhookURL,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := store.Append(h.Store, store.Retailers, retailer); err != nil {
		h.serverError(c, err, "Failed to create retailer")
		return
	}

	p := middleware.PrincipalFrom(c)
	if _, err := h.Audit.Record(
		models.ActionRetailerCreated, p.UserID, models.TargetRetailer, retailer.ID,
		nil, map[string]any{"name": retailer.Name}, nil,
	); err != nil {
		h.serverError(c, err, "Failed to create retailer")
		return
	}

	respondOK(c, http.StatusCreated, retailer, "Retailer created successfully")
}

// GetAllRetailers is the handler for GET /api/retailers.
func (h *Handlers) GetAllRetailers(c *gin.Context) {
	retailers, err := store.ReadAll[models.Retailer](h.Store, store.Retailers)
	if err != nil {
		h.serverError(c, err, "Failed to fetch retailers")
		return
	}
	respondOK(c, http.StatusOK, retailers, "")
}

// GetRetailer is the handler for GET /api/retailers/:id.
func (h *Handlers) GetRetailer(c *gin.Context) {
	retailer, err := store.FindByID[models.Retailer](h.Store, store.Retailers, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Retailer not found")
		return
	}
	if err != nil {
		h.serverError(c, err, "Failed to fetch retailer")
		return
	}
	respondOK(c, http.StatusOK, retailer, "")
}

// UpdateRetailer is the handler for PUT /api/retailers/:id.
func (h *Handlers) UpdateRetailer(c *gin.Context) {
	var input UpdateRetailerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	id := c.Param("id")
	before, err := store.FindByID[models.Retailer](h.Store, store.Retailers, id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Retailer not found")
		return
	}
	if err != nil {
		h.serverError(c, err, "Failed to update retailer")
		return
	}

	updated, err := store.UpdateByID(h.Store, store.Retailers, id, func(r *models.Retailer) {
		if input.Name != nil {
			r.Name = *input.Name
		}
		if input.WebhookURL != nil {
			r.WebhookURL = input.WebhookURL
		}
		if input.IsActive != nil {
			r.IsActive = *input.IsActive
		}
		r.UpdatedAt = time.Now()
	})
	if err != nil {
		h.serverError(c, err, "Failed to update retailer")
		return
	}

	p := middleware.PrincipalFrom(c)
	if _, err := h.Audit.Record(
		models.ActionRetailerUpdated, p.UserID, models.TargetRetailer, id,
		map[string]any{"name": before.Name, "isActive": before.IsActive},
		map[string]any{"name": updated.Name, "isActive": updated.IsActive},
		nil,
	); err != nil {
		h.serverError(c, err, "Failed to update retailer")
		return
	}

	respondOK(c, http.StatusOK, updated, "Retailer updated successfully")
}
