package models

import "time"

// Company is a buyer-side organization. Its relationship to retailers lives
// only in the link collection, never on this record.
type Company struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	APIKey     string    `json:"apiKey"`
	WebhookURL *string   `json:"webhookUrl,omitempty"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (c Company) RecordID() string { return c.ID }
