package audit

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
)

func newTestRecorder(t *testing.T) (*Recorder, *store.Store) {
	t.Helper()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewRecorder(s, logger), s
}

func TestRecordPersistsEntry(t *testing.T) {
	r, s := newTestRecorder(t)

	entry, err := r.Record(
		models.ActionUserUpdated, "admin", models.TargetUser, "u1",
		map[string]any{"spendingLimit": 500.0},
		map[string]any{"spendingLimit": 750.0},
		nil,
	)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())

	stored, err := store.FindByID[models.AuditEntry](s, store.AuditEntries, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionUserUpdated, stored.Action)
	assert.Equal(t, "admin", stored.PerformedBy)
	assert.Equal(t, 750.0, stored.AfterState["spendingLimit"])
}

func TestForTargetAndByActor(t *testing.T) {
	r, _ := newTestRecorder(t)

	_, err := r.Record(models.ActionUserUpdated, "admin", models.TargetUser, "u1", nil, nil, nil)
	require.NoError(t, err)
	_, err = r.Record(models.ActionUserRoleChanged, "admin", models.TargetUser, "u1", nil, nil, nil)
	require.NoError(t, err)
	_, err = r.Record(models.ActionCompanyUpdated, "other", models.TargetCompany, "c1", nil, nil, nil)
	require.NoError(t, err)

	forUser, err := r.ForTarget(models.TargetUser, "u1")
	require.NoError(t, err)
	assert.Len(t, forUser, 2)

	byAdmin, err := r.ByActor("admin")
	require.NoError(t, err)
	assert.Len(t, byAdmin, 2)

	byOther, err := r.ByActor("other")
	require.NoError(t, err)
	require.Len(t, byOther, 1)
	assert.Equal(t, models.ActionCompanyUpdated, byOther[0].Action)
}

func TestListPagesNewestFirst(t *testing.T) {
	r, s := newTestRecorder(t)

	// Seed with explicit timestamps so the ordering is unambiguous.
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(s, store.AuditEntries, models.AuditEntry{
			ID:          uuid.NewString(),
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Action:      models.ActionAuthLogin,
			PerformedBy: "u1",
			TargetType:  models.TargetUser,
			TargetID:    "u1",
		}))
	}

	page, total, err := r.List(2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.True(t, page[0].Timestamp.After(page[1].Timestamp))
	assert.Equal(t, base.Add(4*time.Minute), page[0].Timestamp)

	page, _, err = r.List(2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, base, page[0].Timestamp)

	page, _, err = r.List(2, 10)
	require.NoError(t, err)
	assert.Empty(t, page)

	recent, err := r.Recent(3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}
