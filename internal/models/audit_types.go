package models

import "time"

// AuditAction is the closed taxonomy of recorded state changes. Every
// mutating endpoint uses these tags so the trail stays queryable.
type AuditAction string

const (
	ActionCompanyCreated           AuditAction = "company.created"
	ActionCompanyUpdated           AuditAction = "company.updated"
	ActionCompanyWebhookRegistered AuditAction = "company.webhook.registered"
	ActionDisconnectRequested      AuditAction = "company.disconnect.requested"
	ActionDisconnectApproved       AuditAction = "company.disconnect.approved"
	ActionDisconnectRejected       AuditAction = "company.disconnect.rejected"
	ActionRetailerLinked           AuditAction = "company.retailer.linked"
	ActionRetailerUnlinked         AuditAction = "company.retailer.unlinked"
	ActionRetailerCreated          AuditAction = "retailer.created"
	ActionRetailerUpdated          AuditAction = "retailer.updated"
	ActionUserCreated              AuditAction = "user.created"
	ActionUserUpdated              AuditAction = "user.updated"
	ActionUserRoleChanged          AuditAction = "user.role.changed"
	ActionUserLimitChanged         AuditAction = "user.limit.changed"
	ActionPurchaseApproved         AuditAction = "purchase.approved"
	ActionPurchaseDenied           AuditAction = "purchase.denied"
	ActionAuthLogin                AuditAction = "auth.login"
	ActionMonthlyReset             AuditAction = "monthly.reset"
)

// AuditTargetType names the kind of record an entry is about.
type AuditTargetType string

const (
	TargetCompany           AuditTargetType = "company"
	TargetRetailer          AuditTargetType = "retailer"
	TargetUser              AuditTargetType = "user"
	TargetTransaction       AuditTargetType = "transaction"
	TargetLink              AuditTargetType = "link"
	TargetDisconnectRequest AuditTargetType = "disconnect_request"
	TargetSystem            AuditTargetType = "system"
)

// AuditPerformerSystem is used as PerformedBy when no user drove the change.
const AuditPerformerSystem = "system"

// AuditEntry is append-only: entries are never mutated or deleted.
type AuditEntry struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Action      AuditAction     `json:"action"`
	PerformedBy string          `json:"performedBy"`
	TargetType  AuditTargetType `json:"targetType"`
	TargetID    string          `json:"targetId"`
	BeforeState map[string]any  `json:"beforeState,omitempty"`
	AfterState  map[string]any  `json:"afterState,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

func (e AuditEntry) RecordID() string { return e.ID }
