package models

import (
	"fmt"
	"time"
)

// Source represents how a campaign entered the system
type Source string

const (
	SourceAuto   Source = "auto"
	SourceManual Source = "manual"
)

// Campaign represents a promotional voucher campaign
type Campaign struct {
	ID               int        `json:"id" db:"id"`
	CampaignID       string     `json:"campaign_id" db:"campaign_id"`
	MarketingChannel string     `json:"marketing_channel" db:"marketing_channel"`
	FullLink         string     `json:"full_link" db:"full_link"`
	Source           Source     `json:"source" db:"source"`
	IsValid          bool       `json:"is_valid" db:"is_valid"`
	IsExpired        bool       `json:"is_expired" db:"is_expired"`
	FirstSeenAt      time.Time  `json:"first_seen_at" db:"first_seen_at"`
	FirstSubmittedAt *time.Time `json:"first_submitted_at,omitempty" db:"first_submitted_at"`
	Notes            *string    `json:"notes,omitempty" db:"notes"`
	RedditPostURL    *string    `json:"reddit_post_url,omitempty" db:"reddit_post_url"`
	RedditSubreddit  *string    `json:"reddit_subreddit,omitempty" db:"reddit_subreddit"`
}

// Validate checks if the campaign fields are valid
func (c *Campaign) Validate() error {
	if c.CampaignID == "" {
		return fmt.Errorf("campaign_id is required")
	}
	if c.MarketingChannel == "" {
		return fmt.Errorf("marketing_channel is required")
	}
	if c.Source != SourceAuto && c.Source != SourceManual {
		return fmt.Errorf("invalid source: must be 'auto' or 'manual'")
	}
	if c.IsExpired && c.IsValid {
		return fmt.Errorf("campaign cannot be both expired and valid")
	}
	return nil
}

// IsRedeemable checks if the campaign is still worth sending
func (c *Campaign) IsRedeemable() bool {
	return c.IsValid && !c.IsExpired
}
