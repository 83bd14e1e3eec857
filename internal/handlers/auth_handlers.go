package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/authenticas/authenticas-api/internal/auth"
	"github.com/authenticas/authenticas-api/internal/middleware"
	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
)

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /api/auth/login.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := store.FindOneBy(h.Store, store.Users, func(u models.User) bool {
		return u.Email == input.Email
	})
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		h.serverError(c, err, "Failed to log in")
		return
	}

	password := models.Password{Hash: user.PasswordHash}
	matches, err := password.Matches(input.Password)
	if err != nil {
		h.serverError(c, err, "Failed to log in")
		return
	}
	if !matches {
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !user.IsActive {
		respondError(c, http.StatusForbidden, "Account is inactive")
		return
	}

	token, err := auth.GenerateToken(user, h.JWTSecret)
	if err != nil {
		h.serverError(c, err, "Failed to log in")
		return
	}

	if _, err := h.Audit.Record(models.ActionAuthLogin, user.ID, models.TargetUser, user.ID, nil, nil, nil); err != nil {
		h.serverError(c, err, "Failed to log in")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"token": token, "user": user}, "")
}

// Me is the handler for GET /api/auth/me. The lazy monthly reset runs here
// too, so the balance a user sees matches what verification would use.
func (h *Handlers) Me(c *gin.Context) {
	p := middleware.PrincipalFrom(c)

	user, err := store.FindByID[models.User](h.Store, store.Users, p.UserID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.serverError(c, err, "Failed to fetch profile")
		return
	}

	user, err = h.Ledger.ApplyLazyReset(user, time.Now())
	if err != nil {
		h.serverError(c, err, "Failed to fetch profile")
		return
	}

	respondOK(c, http.StatusOK, user, "")
}
