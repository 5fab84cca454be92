// Package retry provides a bounded retry helper with a fixed delay.
package retry

import (
	"context"
	"time"
)

// Always treats every error as retryable
func Always(error) bool { return true }

// Do runs fn up to attempts times, sleeping delay between attempts. An
// error is retried only when retryable accepts it; other errors are
// returned immediately. Returns the last error when all attempts fail,
// or the context error if ctx is cancelled while waiting.
func Do(ctx context.Context, attempts int, delay time.Duration, retryable func(error) bool, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}
