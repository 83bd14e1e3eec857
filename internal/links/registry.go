// Package links tracks the many-to-many company-retailer relationships.
// The relationship lives only in the link collection; linking operations
// never edit retailer or company records.
package links

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
)

// ErrAlreadyLinked is returned when an active link already exists for a pair.
var ErrAlreadyLinked = errors.New("links: company and retailer are already linked")

// Registry answers link lookups and applies link mutations.
type Registry struct {
	store *store.Store
}

// NewRegistry wires a registry to the record store.
func NewRegistry(s *store.Store) *Registry {
	return &Registry{store: s}
}

// IsLinked reports whether an active link exists for the pair.
func (r *Registry) IsLinked(companyID, retailerID string) (bool, error) {
	_, err := store.FindOneBy(r.store, store.Links, func(l models.CompanyRetailerLink) bool {
		return l.CompanyID == companyID && l.RetailerID == retailerID && l.Status == models.LinkActive
	})
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create links a company to a retailer. An inactive link for the pair is
// reactivated in place, keeping its id; otherwise a new active link is
// written. Returns ErrAlreadyLinked when an active link already exists.
func (r *Registry) Create(companyID, retailerID string) (*models.CompanyRetailerLink, error) {
	existing, err := store.FindOneBy(r.store, store.Links, func(l models.CompanyRetailerLink) bool {
		return l.CompanyID == companyID && l.RetailerID == retailerID
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		if existing.Status == models.LinkActive {
			return nil, ErrAlreadyLinked
		}
		return store.UpdateByID(r.store, store.Links, existing.ID, func(l *models.CompanyRetailerLink) {
			now := time.Now()
			l.Status = models.LinkActive
			l.UpdatedAt = &now
		})
	}

	link := models.CompanyRetailerLink{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		RetailerID: retailerID,
		Status:     models.LinkActive,
		CreatedAt:  time.Now(),
	}
	if err := store.Append(r.store, store.Links, link); err != nil {
		return nil, err
	}
	return &link, nil
}

// Deactivate flips the active link for the pair to inactive. It reports
// false without error when no active link exists.
func (r *Registry) Deactivate(companyID, retailerID string) (bool, error) {
	link, err := store.FindOneBy(r.store, store.Links, func(l models.CompanyRetailerLink) bool {
		return l.CompanyID == companyID && l.RetailerID == retailerID && l.Status == models.LinkActive
	})
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, err = store.UpdateByID(r.store, store.Links, link.ID, func(l *models.CompanyRetailerLink) {
		now := time.Now()
		l.Status = models.LinkInactive
		l.UpdatedAt = &now
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// ActiveForRetailer returns the active links of a retailer.
func (r *Registry) ActiveForRetailer(retailerID string) ([]models.CompanyRetailerLink, error) {
	return store.FindAllBy(r.store, store.Links, func(l models.CompanyRetailerLink) bool {
		return l.RetailerID == retailerID && l.Status == models.LinkActive
	})
}

// ActiveForCompany returns the active links of a company.
func (r *Registry) ActiveForCompany(companyID string) ([]models.CompanyRetailerLink, error) {
	return store.FindAllBy(r.store, store.Links, func(l models.CompanyRetailerLink) bool {
		return l.CompanyID == companyID && l.Status == models.LinkActive
	})
}

// All returns every link, active or not.
func (r *Registry) All() ([]models.CompanyRetailerLink, error) {
	return store.ReadAll[models.CompanyRetailerLink](r.store, store.Links)
}
