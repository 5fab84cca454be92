package models

import (
	"fmt"
	"time"
)

// SearchStatus represents the state of a discovery-feed run
type SearchStatus string

const (
	SearchSuccess SearchStatus = "success"
	SearchFailed  SearchStatus = "failed"
	SearchRunning SearchStatus = "running"
)

// SearchLog is the audit record of one scheduled discovery run
type SearchLog struct {
	ID                 int          `json:"id" db:"id"`
	SearchType         string       `json:"search_type" db:"search_type"`
	Status             SearchStatus `json:"status" db:"status"`
	CampaignsFound     int          `json:"campaigns_found" db:"campaigns_found"`
	NewCampaigns       int          `json:"new_campaigns" db:"new_campaigns"`
	SubredditsSearched []string     `json:"subreddits_searched" db:"subreddits_searched"`
	ErrorMessage       *string      `json:"error_message,omitempty" db:"error_message"`
	StartedAt          time.Time    `json:"started_at" db:"started_at"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
	DurationSeconds    *int         `json:"duration_seconds,omitempty" db:"duration_seconds"`
}

// Validate checks if the search log fields are valid
func (l *SearchLog) Validate() error {
	if l.Status != SearchSuccess && l.Status != SearchFailed && l.Status != SearchRunning {
		return fmt.Errorf("invalid status: must be one of success, failed, running")
	}
	return nil
}

// IsCompleted checks if the run has reached a terminal status
func (l *SearchLog) IsCompleted() bool {
	return l.Status == SearchSuccess || l.Status == SearchFailed
}
