// Package audit implements the append-only audit trail. Entries are never
// mutated or deleted, and recording failures propagate to the caller: an
// unaudited mutation is worse than a failed request.
package audit

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
)

// Recorder appends and queries audit entries.
type Recorder struct {
	store  *store.Store
	logger *logrus.Logger
}

// NewRecorder wires a recorder to the record store.
func NewRecorder(s *store.Store, logger *logrus.Logger) *Recorder {
	return &Recorder{store: s, logger: logger}
}

// Record appends one entry. Before/after snapshots and metadata may be nil.
func (r *Recorder) Record(
	action models.AuditAction,
	performedBy string,
	targetType models.AuditTargetType,
	targetID string,
	before, after, metadata map[string]any,
) (*models.AuditEntry, error) {
	entry := models.AuditEntry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		Action:      action,
		PerformedBy: performedBy,
		TargetType:  targetType,
		TargetID:    targetID,
		BeforeState: before,
		AfterState:  after,
		Metadata:    metadata,
	}

	if err := store.Append(r.store, store.AuditEntries, entry); err != nil {
		return nil, fmt.Errorf("audit: record %s: %w", action, err)
	}

	r.logger.WithFields(logrus.Fields{
		"action":      action,
		"performedBy": performedBy,
		"target":      string(targetType) + ":" + targetID,
	}).Info("audit entry recorded")

	return &entry, nil
}

// ForTarget returns entries about one record, newest first.
func (r *Recorder) ForTarget(targetType models.AuditTargetType, targetID string) ([]models.AuditEntry, error) {
	entries, err := store.FindAllBy(r.store, store.AuditEntries, func(e models.AuditEntry) bool {
		return e.TargetType == targetType && e.TargetID == targetID
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(entries)
	return entries, nil
}

// ByActor returns entries performed by one user, newest first.
func (r *Recorder) ByActor(performedBy string) ([]models.AuditEntry, error) {
	entries, err := store.FindAllBy(r.store, store.AuditEntries, func(e models.AuditEntry) bool {
		return e.PerformedBy == performedBy
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(entries)
	return entries, nil
}

// List returns a newest-first page of entries plus the total count.
// A negative limit means no paging.
func (r *Recorder) List(limit, offset int) ([]models.AuditEntry, int, error) {
	entries, err := store.ReadAll[models.AuditEntry](r.store, store.AuditEntries)
	if err != nil {
		return nil, 0, err
	}
	sortNewestFirst(entries)

	total := len(entries)
	if limit < 0 {
		return entries, total, nil
	}
	if offset >= total {
		return []models.AuditEntry{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return entries[offset:end], total, nil
}

// Recent returns the newest count entries.
func (r *Recorder) Recent(count int) ([]models.AuditEntry, error) {
	entries, _, err := r.List(count, 0)
	return entries, err
}

func sortNewestFirst(entries []models.AuditEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}
