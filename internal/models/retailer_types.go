package models

import "time"

// Retailer is a seller connected to the platform. It owns zero or more
// company links; linking never edits this record.
type Retailer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	APIKey     string    `json:"apiKey"`
	WebhookURL *string   `json:"webhookUrl,omitempty"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (r Retailer) RecordID() string { return r.ID }
