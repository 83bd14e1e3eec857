package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/authenticas/authenticas-api/internal/middleware"
	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
)

// GetAllTransactions is the handler for GET /api/transactions. Results are
// scoped to the caller: the platform operator sees everything, retailer
// administrators their own retailer, company roles their own company, and a
// company member only their own purchases.
func (h *Handlers) GetAllTransactions(c *gin.Context) {
	p := middleware.PrincipalFrom(c)

	var predicate func(models.Transaction) bool
	switch p.Role {
	case models.RoleSystemAdmin:
		predicate = func(models.Transaction) bool { return true }
	case models.RoleRetailerAdmin:
		if p.RetailerID == nil {
			respondError(c, http.StatusForbidden, "No retailer associated with this user.")
			return
		}
		predicate = func(t models.Transaction) bool { return t.RetailerID == *p.RetailerID }
	case models.RoleCompanyAdmin:
		if p.CompanyID == nil {
			respondError(c, http.StatusForbidden, "No company associated with this user.")
			return
		}
		predicate = func(t models.Transaction) bool { return t.CompanyID == *p.CompanyID }
	case models.RoleCompanyUser:
		predicate = func(t models.Transaction) bool { return t.UserID == p.UserID }
	default:
		respondError(c, http.StatusForbidden, "Access denied.")
		return
	}

	transactions, err := store.FindAllBy(h.Store, store.Transactions, predicate)
	if err != nil {
		h.serverError(c, err, "Failed to fetch transactions")
		return
	}
	sortNewestFirst(transactions)

	respondOK(c, http.StatusOK, transactions, "")
}

// GetTransaction is the handler for GET /api/transactions/:id.
func (h *Handlers) GetTransaction(c *gin.Context) {
	tx, err := store.FindByID[models.Transaction](h.Store, store.Transactions, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Transaction not found")
		return
	}
	if err != nil {
		h.serverError(c, err, "Failed to fetch transaction")
		return
	}

	p := middleware.PrincipalFrom(c)
	if !canReadTransaction(p, tx) {
		respondError(c, http.StatusForbidden, "Access denied.")
		return
	}

	respondOK(c, http.StatusOK, tx, "")
}

// TransactionsForUser is the handler for GET /api/users/:id/transactions.
func (h *Handlers) TransactionsForUser(c *gin.Context) {
	userID := c.Param("id")
	p := middleware.PrincipalFrom(c)

	switch p.Role {
	case models.RoleSystemAdmin:
	case models.RoleCompanyAdmin:
		user, err := store.FindByID[models.User](h.Store, store.Users, userID)
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			h.serverError(c, err, "Failed to fetch transactions")
			return
		}
		if user.CompanyID == nil || !p.InCompany(*user.CompanyID) {
			respondError(c, http.StatusForbidden, "Access denied.")
			return
		}
	case models.RoleCompanyUser:
		if userID != p.UserID {
			respondError(c, http.StatusForbidden, "Access denied. You can only view your own transactions.")
			return
		}
	default:
		respondError(c, http.StatusForbidden, "Access denied.")
		return
	}

	transactions, err := store.FindAllBy(h.Store, store.Transactions, func(t models.Transaction) bool {
		return t.UserID == userID
	})
	if err != nil {
		h.serverError(c, err, "Failed to fetch transactions")
		return
	}
	sortNewestFirst(transactions)

	respondOK(c, http.StatusOK, transactions, "")
}

// TransactionsForCompany is the handler for GET /api/companies/:id/transactions.
// Retailer administrators see only a linked company's purchases at their own
// retailer.
func (h *Handlers) TransactionsForCompany(c *gin.Context) {
	companyID := c.Param("id")
	p := middleware.PrincipalFrom(c)

	predicate := func(t models.Transaction) bool { return t.CompanyID == companyID }
	switch p.Role {
	case models.RoleSystemAdmin:
	case models.RoleCompanyAdmin, models.RoleCompanyUser:
		if !p.InCompany(companyID) {
			respondError(c, http.StatusForbidden, "Access denied. You can only access your own company.")
			return
		}
	case models.RoleRetailerAdmin:
		if p.RetailerID == nil {
			respondError(c, http.StatusForbidden, "No retailer associated with this user.")
			return
		}
		linked, err := h.Links.IsLinked(companyID, *p.RetailerID)
		if err != nil {
			h.serverError(c, err, "Failed to fetch transactions")
			return
		}
		if !linked {
			respondError(c, http.StatusForbidden, "Access denied. Company is not linked to your retailer.")
			return
		}
		predicate = func(t models.Transaction) bool {
			return t.CompanyID == companyID && t.RetailerID == *p.RetailerID
		}
	default:
		respondError(c, http.StatusForbidden, "Access denied.")
		return
	}

	transactions, err := store.FindAllBy(h.Store, store.Transactions, predicate)
	if err != nil {
		h.serverError(c, err, "Failed to fetch transactions")
		return
	}
	sortNewestFirst(transactions)

	respondOK(c, http.StatusOK, transactions, "")
}

func canReadTransaction(p *models.Principal, tx *models.Transaction) bool {
	switch p.Role {
	case models.RoleSystemAdmin:
		return true
	case models.RoleRetailerAdmin:
		return p.InRetailer(tx.RetailerID)
	case models.RoleCompanyAdmin:
		return p.InCompany(tx.CompanyID)
	case models.RoleCompanyUser:
		return tx.UserID == p.UserID
	}
	return false
}

func sortNewestFirst(transactions []models.Transaction) {
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].Timestamp.After(transactions[j].Timestamp)
	})
}
