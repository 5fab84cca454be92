package service

import (
	"fmt"
	"time"
)

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ValidationError represents an input validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// BusinessLogicError represents a business logic error
type BusinessLogicError struct {
	Message string
}

func (e *BusinessLogicError) Error() string {
	return fmt.Sprintf("business logic error: %s", e.Message)
}

// ConflictError represents a conflict error (e.g., duplicate record)
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict with %s: %s", e.Resource, e.Message)
}

// DuplicateSubmissionError signals that a campaign link was already
// distributed. It carries the prior submission time so callers can show
// "already submitted N minutes ago" instead of a generic failure.
type DuplicateSubmissionError struct {
	CampaignID  string
	SubmittedAt time.Time
}

func (e *DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("this coffee link has already been submitted %s", FormatTimeAgo(e.SubmittedAt))
}

// CampaignRejectedError signals that validation or distribution
// determined the campaign itself is dead.
type CampaignRejectedError struct {
	CampaignID string
	Reason     string
	Expired    bool
}

func (e *CampaignRejectedError) Error() string {
	return e.Reason
}

// FormatTimeAgo renders a past timestamp as a human-readable distance
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)
	mins := int(diff.Minutes())
	hours := int(diff.Hours())
	days := int(diff.Hours() / 24)

	switch {
	case mins < 1:
		return "just now"
	case mins < 60:
		return fmt.Sprintf("%d minute%s ago", mins, plural(mins))
	case hours < 24:
		return fmt.Sprintf("%d hour%s ago", hours, plural(hours))
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("1/2/2006")
	}
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
