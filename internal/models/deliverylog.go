package models

import "time"

// DeliveryStatus represents the recorded outcome of a send attempt
type DeliveryStatus string

const (
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
)

// DeliveryLog is the append-only audit record of one send attempt for a
// (campaign, phone) pair. Entries are never mutated or deleted; they are
// the evidence used by gap reconciliation and log cleanup.
type DeliveryLog struct {
	ID               int            `json:"id" db:"id"`
	CampaignID       string         `json:"campaign_id" db:"campaign_id"`
	MarketingChannel string         `json:"marketing_channel" db:"marketing_channel"`
	Link             string         `json:"link" db:"link"`
	PhoneNumber      string         `json:"phone_number" db:"phone_number"`
	Status           DeliveryStatus `json:"status" db:"status"`
	ErrorMessage     *string        `json:"error_message,omitempty" db:"error_message"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
}
