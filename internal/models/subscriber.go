package models

import (
	"fmt"
	"time"
)

// Platform represents the subscriber's device platform
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformApple   Platform = "apple"
)

// PhoneLength is the number of digits in a normalized US phone number
const PhoneLength = 10

// Subscriber represents a subscribed phone number
type Subscriber struct {
	ID        int       `json:"id" db:"id"`
	Phone     string    `json:"phone" db:"phone"`
	Platform  Platform  `json:"platform" db:"platform"`
	PushToken *string   `json:"push_token,omitempty" db:"push_token"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Validate checks if the subscriber fields are valid
func (s *Subscriber) Validate() error {
	if len(s.Phone) != PhoneLength {
		return fmt.Errorf("phone number must be %d digits", PhoneLength)
	}
	if s.Platform != PlatformAndroid && s.Platform != PlatformApple {
		return fmt.Errorf("invalid platform: must be 'android' or 'apple'")
	}
	return nil
}

// NormalizePhone strips every non-digit character from a phone number.
// Normalization is idempotent: normalizing an already normalized number
// is a no-op.
func NormalizePhone(raw string) string {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	return string(digits)
}

// FormatPhone renders a 10-digit phone number as (XXX) XXX-XXXX for
// display. Inputs of any other length are returned unchanged.
func FormatPhone(digits string) string {
	if len(digits) != PhoneLength {
		return digits
	}
	return fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10])
}
