package models

import "time"

// DisconnectRequestStatus transitions pending -> approved|rejected exactly
// once; both non-pending states are terminal.
type DisconnectRequestStatus string

const (
	DisconnectPending  DisconnectRequestStatus = "pending"
	DisconnectApproved DisconnectRequestStatus = "approved"
	DisconnectRejected DisconnectRequestStatus = "rejected"
)

// DisconnectRequest is a company-initiated, retailer-approved request to
// deactivate a link. At most one pending request exists per
// (companyId, retailerId) pair.
type DisconnectRequest struct {
	ID          string                  `json:"id"`
	CompanyID   string                  `json:"companyId"`
	RetailerID  string                  `json:"retailerId"`
	Status      DisconnectRequestStatus `json:"status"`
	Reason      *string                 `json:"reason,omitempty"`
	RequestedBy string                  `json:"requestedBy"`
	ProcessedBy *string                 `json:"processedBy,omitempty"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

func (d DisconnectRequest) RecordID() string { return d.ID }
