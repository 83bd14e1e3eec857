package ledger

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticas/authenticas-api/internal/audit"
	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
)

func newTestLedger(t *testing.T) (*Ledger, *store.Store, *audit.Recorder) {
	t.Helper()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	recorder := audit.NewRecorder(s, logger)
	return NewLedger(s, recorder, logger), s, recorder
}

func seedTransaction(t *testing.T, s *store.Store, userID, retailerID string, amount float64, status models.TransactionStatus, at time.Time) {
	t.Helper()
	require.NoError(t, store.Append(s, store.Transactions, models.Transaction{
		ID:         uuid.NewString(),
		UserID:     userID,
		CompanyID:  "c1",
		RetailerID: retailerID,
		Amount:     amount,
		Status:     status,
		Timestamp:  at,
	}))
}

func TestSameMonth(t *testing.T) {
	assert.True(t, SameMonth(
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC),
	))
	assert.False(t, SameMonth(
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	))
	// Same month, different year.
	assert.False(t, SameMonth(
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	))
}

func TestGlobalSpendSumsAcrossRetailers(t *testing.T) {
	l, s, _ := newTestLedger(t)

	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	seedTransaction(t, s, "u1", "retailer-a", 100, models.TransactionApproved, now)
	seedTransaction(t, s, "u1", "retailer-b", 250, models.TransactionApproved, now.Add(time.Hour))

	// Denied attempts, other users and other months never count.
	seedTransaction(t, s, "u1", "retailer-a", 999, models.TransactionDenied, now)
	seedTransaction(t, s, "u2", "retailer-a", 40, models.TransactionApproved, now)
	seedTransaction(t, s, "u1", "retailer-a", 75, models.TransactionApproved, now.AddDate(0, -1, 0))

	spent, err := l.GlobalSpend("u1", now)
	require.NoError(t, err)
	assert.Equal(t, 350.0, spent)
}

func TestApplyLazyResetNoOpWithinMonth(t *testing.T) {
	l, s, _ := newTestLedger(t)

	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	user := models.User{ID: "u1", SpentThisMonth: 400, LastResetDate: now.AddDate(0, 0, -5)}
	require.NoError(t, store.Append(s, store.Users, user))

	got, err := l.ApplyLazyReset(&user, now)
	require.NoError(t, err)
	assert.Equal(t, 400.0, got.SpentThisMonth)

	entries, err := store.ReadAll[models.AuditEntry](s, store.AuditEntries)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApplyLazyResetAcrossMonthBoundary(t *testing.T) {
	l, s, _ := newTestLedger(t)

	lastMonth := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 1, 0, 0, 1, 0, time.UTC)
	user := models.User{ID: "u1", SpentThisMonth: 640, LastResetDate: lastMonth}
	require.NoError(t, store.Append(s, store.Users, user))

	got, err := l.ApplyLazyReset(&user, now)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.SpentThisMonth)
	assert.Equal(t, now, got.LastResetDate)

	// The reset is persisted, not just returned.
	stored, err := store.FindByID[models.User](s, store.Users, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, stored.SpentThisMonth)

	entries, err := store.ReadAll[models.AuditEntry](s, store.AuditEntries)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionMonthlyReset, entries[0].Action)
	assert.Equal(t, models.AuditPerformerSystem, entries[0].PerformedBy)
	assert.Equal(t, "u1", entries[0].TargetID)
	assert.Equal(t, 640.0, entries[0].BeforeState["spentThisMonth"])
}

func TestApplyLazyResetStaleSnapshotResetsOnce(t *testing.T) {
	l, s, _ := newTestLedger(t)

	lastMonth := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 1, 0, 0, 1, 0, time.UTC)
	user := models.User{ID: "u1", SpentThisMonth: 640, LastResetDate: lastMonth}
	require.NoError(t, store.Append(s, store.Users, user))

	// First caller resets; this month's spending then accrues.
	_, err := l.ApplyLazyReset(&user, now)
	require.NoError(t, err)
	_, err = store.UpdateByID(s, store.Users, "u1", func(u *models.User) {
		u.SpentThisMonth = 30
	})
	require.NoError(t, err)

	// A second caller still holding the pre-reset snapshot must not zero the
	// balance again; the check runs against the stored record.
	got, err := l.ApplyLazyReset(&user, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.SpentThisMonth)

	stored, err := store.FindByID[models.User](s, store.Users, "u1")
	require.NoError(t, err)
	assert.Equal(t, 30.0, stored.SpentThisMonth)

	var resets int
	entries, err := store.ReadAll[models.AuditEntry](s, store.AuditEntries)
	require.NoError(t, err)
	for _, entry := range entries {
		if entry.Action == models.ActionMonthlyReset {
			resets++
		}
	}
	assert.Equal(t, 1, resets)
}
