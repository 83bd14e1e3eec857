package models

import "time"

// WebhookEvent names an outbound notification.
type WebhookEvent string

const (
	EventPurchaseApproved    WebhookEvent = "purchase.approved"
	EventPurchaseDenied      WebhookEvent = "purchase.denied"
	EventLimitExceeded       WebhookEvent = "limit.exceeded"
	EventDisconnectRequested WebhookEvent = "disconnect.requested"
	EventDisconnectApproved  WebhookEvent = "disconnect.approved"
	EventDisconnectRejected  WebhookEvent = "disconnect.rejected"
)

// WebhookData carries the event-specific fields. Optional fields are
// pointers so absent values are omitted from the payload.
type WebhookData struct {
	TransactionID       *string            `json:"transactionId,omitempty"`
	UserID              *string            `json:"userId,omitempty"`
	CompanyID           *string            `json:"companyId,omitempty"`
	RetailerID          *string            `json:"retailerId,omitempty"`
	Amount              *float64           `json:"amount,omitempty"`
	Status              *TransactionStatus `json:"status,omitempty"`
	SpentThisMonth      *float64           `json:"spentThisMonth,omitempty"`
	SpendingLimit       *float64           `json:"spendingLimit,omitempty"`
	DenialReason        *DenialReason      `json:"denialReason,omitempty"`
	DisconnectRequestID *string            `json:"disconnectRequestId,omitempty"`
}

// WebhookPayload is the fixed shape POSTed to a retailer's endpoint.
type WebhookPayload struct {
	Event     WebhookEvent `json:"event"`
	Timestamp time.Time    `json:"timestamp"`
	Data      WebhookData  `json:"data"`
}
