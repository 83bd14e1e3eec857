// Package ledger computes a user's global monthly spend and applies the lazy
// monthly reset. The transaction collection is the source of truth; the
// cached SpentThisMonth field on the user is only refreshed here and by the
// verification engine, never written independently of a recorded transaction.
package ledger

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/authenticas/authenticas-api/internal/audit"
	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
)

// Ledger derives monthly spend figures from the transaction log.
type Ledger struct {
	store  *store.Store
	audit  *audit.Recorder
	logger *logrus.Logger
}

// NewLedger wires a ledger to the record store and the audit recorder.
func NewLedger(s *store.Store, recorder *audit.Recorder, logger *logrus.Logger) *Ledger {
	return &Ledger{store: s, audit: recorder, logger: logger}
}

// SameMonth reports whether two instants fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// GlobalSpend sums the amounts of the user's approved transactions whose
// timestamp falls in the same calendar month as asOf, across all retailers.
func (l *Ledger) GlobalSpend(userID string, asOf time.Time) (float64, error) {
	approved, err := store.FindAllBy(l.store, store.Transactions, func(t models.Transaction) bool {
		return t.UserID == userID &&
			t.Status == models.TransactionApproved &&
			SameMonth(t.Timestamp, asOf)
	})
	if err != nil {
		return 0, fmt.Errorf("ledger: global spend for %s: %w", userID, err)
	}

	var total float64
	for _, t := range approved {
		total += t.Amount
	}
	return total, nil
}

// ApplyLazyReset zeroes the cached monthly spend when the user's last reset
// happened in a different calendar month than asOf. The reset is persisted
// and audited; when no reset is due the user is returned unchanged.
//
// Every read path (verification, get-one, list-all) goes through this call
// so reset timing cannot diverge between views.
func (l *Ledger) ApplyLazyReset(user *models.User, asOf time.Time) (*models.User, error) {
	if SameMonth(user.LastResetDate, asOf) {
		return user, nil
	}

	// The caller's snapshot may be stale: another request can reset the same
	// user between the check above and this write. The mutate callback
	// re-checks against the stored record so the reset applies at most once
	// per month boundary.
	var previousSpent float64
	reset := false
	updated, err := store.UpdateByID(l.store, store.Users, user.ID, func(u *models.User) {
		if SameMonth(u.LastResetDate, asOf) {
			return
		}
		reset = true
		previousSpent = u.SpentThisMonth
		u.SpentThisMonth = 0
		u.LastResetDate = asOf
		u.UpdatedAt = asOf
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: monthly reset for %s: %w", user.ID, err)
	}
	if !reset {
		return updated, nil
	}

	if _, err := l.audit.Record(
		models.ActionMonthlyReset,
		models.AuditPerformerSystem,
		models.TargetUser,
		user.ID,
		map[string]any{"spentThisMonth": previousSpent},
		map[string]any{"spentThisMonth": 0},
		nil,
	); err != nil {
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{
		"userId":        user.ID,
		"previousSpent": previousSpent,
	}).Info("monthly spend reset")

	return updated, nil
}
