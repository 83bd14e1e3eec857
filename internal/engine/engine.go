// Package engine implements the purchase verification pipeline. It consults
// the link registry and the spend ledger, records a transaction for every
// attempt (denied attempts included), audits each decision, and asks the
// dispatcher to notify the retailer in the background.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/authenticas/authenticas-api/internal/audit"
	"github.com/authenticas/authenticas-api/internal/ledger"
	"github.com/authenticas/authenticas-api/internal/links"
	"github.com/authenticas/authenticas-api/internal/metrics"
	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
	"github.com/authenticas/authenticas-api/internal/webhook"
)

// ValidationError rejects malformed input before any record is written.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// VerifyRequest is the inbound verification call.
type VerifyRequest struct {
	UserID     string
	CompanyID  string
	RetailerID string
	Amount     float64
}

// VerifyResult is the decision. Reason is empty when approved. The budget
// fields are meaningful only when IncludeBudget is set (approved and
// limit_exceeded outcomes).
type VerifyResult struct {
	TransactionID   string
	Status          models.TransactionStatus
	Reason          models.DenialReason
	Amount          float64
	SpentThisMonth  float64
	SpendingLimit   float64
	RemainingBudget float64
	IncludeBudget   bool
}

// Engine runs the decision pipeline.
type Engine struct {
	store      *store.Store
	links      *links.Registry
	ledger     *ledger.Ledger
	audit      *audit.Recorder
	dispatcher *webhook.Dispatcher
	logger     *logrus.Logger
	userLocks  *userLocks
}

// NewEngine wires the pipeline to its collaborators.
func NewEngine(
	s *store.Store,
	registry *links.Registry,
	l *ledger.Ledger,
	recorder *audit.Recorder,
	dispatcher *webhook.Dispatcher,
	logger *logrus.Logger,
) *Engine {
	return &Engine{
		store:      s,
		links:      registry,
		ledger:     l,
		audit:      recorder,
		dispatcher: dispatcher,
		logger:     logger,
		userLocks:  newUserLocks(),
	}
}

// Verify runs the pipeline, short-circuiting on the first failing check.
// Every non-validation branch records exactly one transaction and one audit
// entry, transaction first.
func (e *Engine) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	// 1. --- Validate Input (no records written on failure) ---
	if req.UserID == "" || req.CompanyID == "" || req.RetailerID == "" {
		return nil, &ValidationError{Message: "userId, companyId and retailerId are required"}
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return nil, &ValidationError{Message: "amount must be a finite number"}
	}
	if req.Amount <= 0 {
		return nil, &ValidationError{Message: "amount must be greater than 0"}
	}

	// 2. --- Retailer must exist ---
	retailer, err := store.FindByID[models.Retailer](e.store, store.Retailers, req.RetailerID)
	if errors.Is(err, store.ErrNotFound) {
		return e.deny(req, models.ReasonRetailerNotFound, 0, nil, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("engine: load retailer: %w", err)
	}

	// 3. --- Company must exist ---
	company, err := store.FindByID[models.Company](e.store, store.Companies, req.CompanyID)
	if errors.Is(err, store.ErrNotFound) {
		return e.deny(req, models.ReasonCompanyNotFound, 0, retailer, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("engine: load company: %w", err)
	}

	// 4. --- Link must be active ---
	linked, err := e.links.IsLinked(req.CompanyID, req.RetailerID)
	if err != nil {
		return nil, fmt.Errorf("engine: link check: %w", err)
	}
	if !linked {
		return e.deny(req, models.ReasonNotLinked, 0, retailer, nil)
	}

	// 5. --- Company must be active ---
	if !company.IsActive {
		return e.deny(req, models.ReasonCompanyInactive, 0, retailer, nil)
	}

	// 6. --- User must exist ---
	user, err := store.FindByID[models.User](e.store, store.Users, req.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return e.deny(req, models.ReasonUserNotFound, 0, retailer, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("engine: load user: %w", err)
	}

	now := time.Now()

	// 7. --- User must belong to the requesting company ---
	if user.CompanyID == nil || *user.CompanyID != req.CompanyID {
		spent, err := e.ledger.GlobalSpend(req.UserID, now)
		if err != nil {
			return nil, err
		}
		extra := &webhook.Extra{SpentThisMonth: &spent, SpendingLimit: &user.SpendingLimit}
		return e.deny(req, models.ReasonInsufficientPermissions, spent, retailer, extra)
	}

	// 8. --- User must be active ---
	if !user.IsActive {
		spent, err := e.ledger.GlobalSpend(req.UserID, now)
		if err != nil {
			return nil, err
		}
		extra := &webhook.Extra{SpentThisMonth: &spent, SpendingLimit: &user.SpendingLimit}
		return e.deny(req, models.ReasonUserInactive, spent, retailer, extra)
	}

	// 9. --- Budget check and commit, serialized per user ---
	// The spend read and the balance write must be atomic with respect to
	// other purchases by the same user, otherwise two concurrent requests
	// could both pass the limit check and overspend.
	unlock := e.userLocks.lock(req.UserID)
	defer unlock()

	user, err = e.ledger.ApplyLazyReset(user, now)
	if err != nil {
		return nil, err
	}

	spent, err := e.ledger.GlobalSpend(req.UserID, now)
	if err != nil {
		return nil, err
	}

	if spent+req.Amount > user.SpendingLimit {
		return e.denyLimitExceeded(req, spent, user, retailer)
	}

	return e.approve(req, spent, user, retailer)
}

// approve persists the transaction, refreshes the user's cached balance,
// notifies the retailer and audits the decision.
func (e *Engine) approve(req VerifyRequest, spent float64, user *models.User, retailer *models.Retailer) (*VerifyResult, error) {
	balanceBefore := spent
	balanceAfter := spent + req.Amount

	tx := models.Transaction{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		CompanyID:     req.CompanyID,
		RetailerID:    req.RetailerID,
		Amount:        req.Amount,
		Status:        models.TransactionApproved,
		Timestamp:     time.Now(),
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
	}
	if err := store.Append(e.store, store.Transactions, tx); err != nil {
		return nil, fmt.Errorf("engine: persist transaction: %w", err)
	}

	if _, err := store.UpdateByID(e.store, store.Users, user.ID, func(u *models.User) {
		u.SpentThisMonth = balanceAfter
		u.UpdatedAt = time.Now()
	}); err != nil {
		return nil, fmt.Errorf("engine: update user balance: %w", err)
	}

	e.dispatcher.Trigger(retailerTarget(retailer), models.EventPurchaseApproved, &tx, &webhook.Extra{
		SpentThisMonth: &balanceAfter,
		SpendingLimit:  &user.SpendingLimit,
	})

	if _, err := e.audit.Record(
		models.ActionPurchaseApproved,
		req.UserID,
		models.TargetTransaction,
		tx.ID,
		map[string]any{"spentThisMonth": balanceBefore},
		map[string]any{"spentThisMonth": balanceAfter},
		map[string]any{"amount": req.Amount},
	); err != nil {
		return nil, err
	}

	metrics.VerificationsTotal.WithLabelValues(string(models.TransactionApproved), "").Inc()
	e.logger.WithFields(logrus.Fields{
		"transactionId": tx.ID,
		"userId":        req.UserID,
		"retailerId":    req.RetailerID,
		"amount":        req.Amount,
	}).Info("purchase approved")

	return &VerifyResult{
		TransactionID:   tx.ID,
		Status:          models.TransactionApproved,
		Amount:          req.Amount,
		SpentThisMonth:  balanceAfter,
		SpendingLimit:   user.SpendingLimit,
		RemainingBudget: remaining(user.SpendingLimit, balanceAfter),
		IncludeBudget:   true,
	}, nil
}

// denyLimitExceeded is the one denial that emits two notifications and
// exposes the budget figures in the response.
func (e *Engine) denyLimitExceeded(req VerifyRequest, spent float64, user *models.User, retailer *models.Retailer) (*VerifyResult, error) {
	extra := &webhook.Extra{SpentThisMonth: &spent, SpendingLimit: &user.SpendingLimit}

	tx, err := e.recordDenial(req, models.ReasonLimitExceeded, spent)
	if err != nil {
		return nil, err
	}

	target := retailerTarget(retailer)
	e.dispatcher.Trigger(target, models.EventPurchaseDenied, tx, extra)
	e.dispatcher.Trigger(target, models.EventLimitExceeded, tx, extra)

	metrics.VerificationsTotal.WithLabelValues(string(models.TransactionDenied), string(models.ReasonLimitExceeded)).Inc()
	e.logger.WithFields(logrus.Fields{
		"transactionId": tx.ID,
		"userId":        req.UserID,
		"retailerId":    req.RetailerID,
		"reason":        models.ReasonLimitExceeded,
	}).Info("purchase denied")

	return &VerifyResult{
		TransactionID:   tx.ID,
		Status:          models.TransactionDenied,
		Reason:          models.ReasonLimitExceeded,
		Amount:          req.Amount,
		SpentThisMonth:  spent,
		SpendingLimit:   user.SpendingLimit,
		RemainingBudget: remaining(user.SpendingLimit, spent),
		IncludeBudget:   true,
	}, nil
}

// deny records a denied transaction and its audit entry, and notifies the
// retailer when one is known.
func (e *Engine) deny(req VerifyRequest, reason models.DenialReason, balance float64, retailer *models.Retailer, extra *webhook.Extra) (*VerifyResult, error) {
	tx, err := e.recordDenial(req, reason, balance)
	if err != nil {
		return nil, err
	}

	if retailer != nil {
		e.dispatcher.Trigger(retailerTarget(retailer), models.EventPurchaseDenied, tx, extra)
	}

	metrics.VerificationsTotal.WithLabelValues(string(models.TransactionDenied), string(reason)).Inc()
	e.logger.WithFields(logrus.Fields{
		"transactionId": tx.ID,
		"userId":        req.UserID,
		"retailerId":    req.RetailerID,
		"reason":        reason,
	}).Info("purchase denied")

	return &VerifyResult{
		TransactionID: tx.ID,
		Status:        models.TransactionDenied,
		Reason:        reason,
		Amount:        req.Amount,
	}, nil
}

// recordDenial writes the denied transaction first, the audit entry second.
func (e *Engine) recordDenial(req VerifyRequest, reason models.DenialReason, balance float64) (*models.Transaction, error) {
	r := reason
	tx := models.Transaction{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		CompanyID:     req.CompanyID,
		RetailerID:    req.RetailerID,
		Amount:        req.Amount,
		Status:        models.TransactionDenied,
		DenialReason:  &r,
		Timestamp:     time.Now(),
		BalanceBefore: balance,
		BalanceAfter:  balance,
	}
	if err := store.Append(e.store, store.Transactions, tx); err != nil {
		return nil, fmt.Errorf("engine: persist transaction: %w", err)
	}

	if _, err := e.audit.Record(
		models.ActionPurchaseDenied,
		req.UserID,
		models.TargetTransaction,
		tx.ID,
		nil,
		nil,
		map[string]any{"amount": req.Amount, "reason": reason},
	); err != nil {
		return nil, err
	}

	return &tx, nil
}

func remaining(limit, spent float64) float64 {
	if r := limit - spent; r > 0 {
		return r
	}
	return 0
}

func retailerTarget(r *models.Retailer) webhook.Target {
	return webhook.Target{ID: r.ID, Name: r.Name, WebhookURL: r.WebhookURL}
}
