package service

import (
	"testing"
	"time"
)

func TestFormatTimeAgo(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"just now", now.Add(-30 * time.Second), "just now"},
		{"one minute", now.Add(-90 * time.Second), "1 minute ago"},
		{"minutes", now.Add(-45 * time.Minute), "45 minutes ago"},
		{"one hour", now.Add(-90 * time.Minute), "1 hour ago"},
		{"hours", now.Add(-5 * time.Hour), "5 hours ago"},
		{"yesterday", now.Add(-30 * time.Hour), "yesterday"},
		{"days", now.Add(-3 * 24 * time.Hour), "3 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimeAgo(tt.t); got != tt.want {
				t.Errorf("FormatTimeAgo = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatTimeAgo_OldDatesUseCalendarFormat(t *testing.T) {
	old := time.Date(2024, 3, 9, 12, 0, 0, 0, time.Local)
	if got := FormatTimeAgo(old); got != "3/9/2024" {
		t.Errorf("FormatTimeAgo = %q, want %q", got, "3/9/2024")
	}
}

func TestDuplicateSubmissionError_Message(t *testing.T) {
	err := &DuplicateSubmissionError{
		CampaignID:  "ABC",
		SubmittedAt: time.Now().Add(-2 * time.Hour),
	}
	want := "this coffee link has already been submitted 2 hours ago"
	if err.Error() != want {
		t.Errorf("Error = %q, want %q", err.Error(), want)
	}
}
