package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/authenticas/authenticas-api/internal/middleware"
	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
)

// DefaultSpendingLimit applies when a new user is created without one.
const DefaultSpendingLimit = 1000

type CreateUserInput struct {
	Email         string       `json:"email" binding:"required,email"`
	Password      string       `json:"password" binding:"required,min=8"`
	FirstName     string       `json:"firstName" binding:"required"`
	LastName      string       `json:"lastName" binding:"required"`
	CompanyID     *string      `json:"companyId"`
	RetailerID    *string      `json:"retailerId"`
	Role          *models.Role `json:"role"`
	SpendingLimit *float64     `json:"spendingLimit"`
}

type UpdateUserInput struct {
	FirstName     *string      `json:"firstName"`
	LastName      *string      `json:"lastName"`
	Role          *models.Role `json:"role"`
	SpendingLimit *float64     `json:"spendingLimit"`
	IsActive      *bool        `json:"isActive"`
}

// CreateUser is the handler for POST /api/users. Company administrators may
// only create members of their own company.
func (h *Handlers) CreateUser(c *gin.Context) {
	var input CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	role := models.RoleCompanyUser
	if input.Role != nil {
		role = *input.Role
	}
	if !role.Valid() {
		respondError(c, http.StatusBadRequest, "unknown role")
		return
	}

	p := middleware.PrincipalFrom(c)
	if p.Role == models.RoleCompanyAdmin {
		// Scope: force membership into the administrator's own company.
		if role != models.RoleCompanyAdmin && role != models.RoleCompanyUser {
			respondError(c, http.StatusForbidden, "Access denied. You can only create company users.")
			return
		}
		input.CompanyID = p.CompanyID
		input.RetailerID = nil
	}

	existing, err := store.FindOneBy(h.Store, store.Users, func(u models.User) bool {
		return u.Email == input.Email
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.serverError(c, err, "Failed to create user")
		return
	}
	if existing != nil {
		respondError(c, http.StatusBadRequest, "A user with this email already exists")
		return
	}

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		h.serverError(c, err, "Failed to create user")
		return
	}

	limit := float64(DefaultSpendingLimit)
	if input.SpendingLimit != nil {
		limit = *input.SpendingLimit
	}

	now := time.Now()
	user := models.User{
		ID:             uuid.NewString(),
		Email:          input.Email,
		PasswordHash:   password.Hash,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		CompanyID:      input.CompanyID,
		RetailerID:     input.RetailerID,
		Role:           role,
		SpendingLimit:  limit,
		SpentThisMonth: 0,
		LastResetDate:  now,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.Append(h.Store, store.Users, user); err != nil {
		h.serverError(c, err, "Failed to create user")
		return
	}

	if _, err := h.Audit.Record(
		models.ActionUserCreated, p.UserID, models.TargetUser, user.ID,
		nil, map[string]any{"email": user.Email, "role": user.Role}, nil,
	); err != nil {
		h.serverError(c, err, "Failed to create user")
		return
	}

	respondOK(c, http.StatusCreated, user, "User created successfully")
}

// GetAllUsers is the handler for GET /api/users. The platform operator sees
// everyone; company roles see their own company. Every listed user goes
// through the lazy monthly reset so cached balances are current.
func (h *Handlers) GetAllUsers(c *gin.Context) {
	p := middleware.PrincipalFrom(c)

	var predicate func(models.User) bool
	switch p.Role {
	case models.RoleSystemAdmin:
		predicate = func(models.User) bool { return true }
	case models.RoleCompanyAdmin, models.RoleCompanyUser:
		if p.CompanyID == nil {
			respondError(c, http.StatusForbidden, "No company associated with this user.")
			return
		}
		predicate = func(u models.User) bool {
			return u.CompanyID != nil && *u.CompanyID == *p.CompanyID
		}
	default:
		respondError(c, http.StatusForbidden, "Access denied.")
		return
	}

	users, err := store.FindAllBy(h.Store, store.Users, predicate)
	if err != nil {
		h.serverError(c, err, "Failed to fetch users")
		return
	}

	now := time.Now()
	for i := range users {
		refreshed, err := h.Ledger.ApplyLazyReset(&users[i], now)
		if err != nil {
			h.serverError(c, err, "Failed to fetch users")
			return
		}
		users[i] = *refreshed
	}

	respondOK(c, http.StatusOK, users, "")
}

// GetUser is the handler for GET /api/users/:id. Company members may only
// read themselves; company administrators their own company.
func (h *Handlers) GetUser(c *gin.Context) {
	id := c.Param("id")
	p := middleware.PrincipalFrom(c)

	user, err := store.FindByID[models.User](h.Store, store.Users, id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.serverError(c, err, "Failed to fetch user")
		return
	}

	switch p.Role {
	case models.RoleSystemAdmin:
	case models.RoleCompanyAdmin:
		if user.CompanyID == nil || p.CompanyID == nil || *user.CompanyID != *p.CompanyID {
			respondError(c, http.StatusForbidden, "Access denied.")
			return
		}
	case models.RoleCompanyUser:
		if id != p.UserID {
			respondError(c, http.StatusForbidden, "Access denied. You can only view your own data.")
			return
		}
	default:
		respondError(c, http.StatusForbidden, "Access denied.")
		return
	}

	user, err = h.Ledger.ApplyLazyReset(user, time.Now())
	if err != nil {
		h.serverError(c, err, "Failed to fetch user")
		return
	}

	respondOK(c, http.StatusOK, user, "")
}

// UpdateUser is the handler for PUT /api/users/:id. Role and spending-limit
// changes get dedicated audit entries on top of the generic update entry.
func (h *Handlers) UpdateUser(c *gin.Context) {
	var input UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Role != nil && !input.Role.Valid() {
		respondError(c, http.StatusBadRequest, "unknown role")
		return
	}

	id := c.Param("id")
	p := middleware.PrincipalFrom(c)

	before, err := store.FindByID[models.User](h.Store, store.Users, id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.serverError(c, err, "Failed to update user")
		return
	}

	if p.Role == models.RoleCompanyAdmin {
		if before.CompanyID == nil || p.CompanyID == nil || *before.CompanyID != *p.CompanyID {
			respondError(c, http.StatusForbidden, "Access denied. You can only manage your own company's users.")
			return
		}
	}

	updated, err := store.UpdateByID(h.Store, store.Users, id, func(u *models.User) {
		if input.FirstName != nil {
			u.FirstName = *input.FirstName
		}
		if input.LastName != nil {
			u.LastName = *input.LastName
		}
		if input.Role != nil {
			u.Role = *input.Role
		}
		if input.SpendingLimit != nil {
			u.SpendingLimit = *input.SpendingLimit
		}
		if input.IsActive != nil {
			u.IsActive = *input.IsActive
		}
		u.UpdatedAt = time.Now()
	})
	if err != nil {
		h.serverError(c, err, "Failed to update user")
		return
	}

	if _, err := h.Audit.Record(
		models.ActionUserUpdated, p.UserID, models.TargetUser, id,
		map[string]any{"role": before.Role, "spendingLimit": before.SpendingLimit, "isActive": before.IsActive},
		map[string]any{"role": updated.Role, "spendingLimit": updated.SpendingLimit, "isActive": updated.IsActive},
		nil,
	); err != nil {
		h.serverError(c, err, "Failed to update user")
		return
	}

	if input.Role != nil && *input.Role != before.Role {
		if _, err := h.Audit.Record(
			models.ActionUserRoleChanged, p.UserID, models.TargetUser, id,
			map[string]any{"role": before.Role}, map[string]any{"role": updated.Role}, nil,
		); err != nil {
			h.serverError(c, err, "Failed to update user")
			return
		}
	}

	if input.SpendingLimit != nil && *input.SpendingLimit != before.SpendingLimit {
		if _, err := h.Audit.Record(
			models.ActionUserLimitChanged, p.UserID, models.TargetUser, id,
			map[string]any{"spendingLimit": before.SpendingLimit},
			map[string]any{"spendingLimit": updated.SpendingLimit}, nil,
		); err != nil {
			h.serverError(c, err, "Failed to update user")
			return
		}
	}

	respondOK(c, http.StatusOK, updated, "User updated successfully")
}
