package models

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"(555) 123-4567", "5551234567"},
		{"555-123-4567", "5551234567"},
		{"555.123.4567", "5551234567"},
		{"5551234567", "5551234567"},
		{"+1 555 123 4567", "15551234567"},
		{"", ""},
		{"abc", ""},
	}

	for _, tt := range tests {
		if got := NormalizePhone(tt.raw); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	once := NormalizePhone("(555) 123-4567")
	if NormalizePhone(once) != once {
		t.Errorf("Normalization not idempotent for %q", once)
	}
}

func TestFormatPhone(t *testing.T) {
	if got := FormatPhone("5551234567"); got != "(555) 123-4567" {
		t.Errorf("FormatPhone = %q, want %q", got, "(555) 123-4567")
	}

	// Non-10-digit inputs pass through unchanged
	if got := FormatPhone("12345"); got != "12345" {
		t.Errorf("FormatPhone = %q, want %q", got, "12345")
	}
}

func TestSubscriberValidate(t *testing.T) {
	sub := &Subscriber{Phone: "5551234567", Platform: PlatformAndroid}
	if err := sub.Validate(); err != nil {
		t.Errorf("Expected valid subscriber but got: %v", err)
	}

	short := &Subscriber{Phone: "555123", Platform: PlatformApple}
	if err := short.Validate(); err == nil {
		t.Error("Expected error for short phone")
	}

	badPlatform := &Subscriber{Phone: "5551234567", Platform: "windows"}
	if err := badPlatform.Validate(); err == nil {
		t.Error("Expected error for unknown platform")
	}
}
