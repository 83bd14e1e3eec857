package models

import "time"

// LinkStatus is the state of a company-retailer link.
type LinkStatus string

const (
	LinkActive   LinkStatus = "active"
	LinkInactive LinkStatus = "inactive"
)

// CompanyRetailerLink is the many-to-many relationship record. At most one
// link exists per (companyId, retailerId) pair; deactivated links are kept
// and reactivated in place rather than duplicated.
type CompanyRetailerLink struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"companyId"`
	RetailerID string     `json:"retailerId"`
	Status     LinkStatus `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

func (l CompanyRetailerLink) RecordID() string { return l.ID }
