// Package push relays notifications to subscriber devices via the Expo
// push API. The relay is fire-and-forget from the core's point of view:
// partial per-message failure never affects delivery bookkeeping.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jeffreyshi17/coffree/internal/retry"
)

// Message is one push notification addressed to a device token
type Message struct {
	To    string                 `json:"to"`
	Sound string                 `json:"sound"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// Ticket is the per-message receipt returned by the push API
type Ticket struct {
	Status  string                 `json:"status"` // "ok" or "error"
	ID      string                 `json:"id,omitempty"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// OK reports whether the ticket indicates the message was accepted
func (t Ticket) OK() bool {
	return t.Status == "ok"
}

type pushResponse struct {
	Data []Ticket `json:"data"`
}

// Relay batches push messages to the Expo endpoint with bounded retries
type Relay struct {
	httpClient  *http.Client
	endpoint    string
	maxAttempts int
	retryDelay  time.Duration
}

// NewRelay creates a push relay
func NewRelay(endpoint string, timeout time.Duration, maxAttempts int, retryDelay time.Duration) *Relay {
	return &Relay{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    endpoint,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
}

// SendBatch posts a batch of messages and returns per-message tickets.
// Transport failures and non-2xx responses are retried with a fixed
// delay before the whole batch is reported as failed.
func (r *Relay) SendBatch(ctx context.Context, messages []Message) ([]Ticket, error) {
	if len(messages) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode push messages: %w", err)
	}

	var tickets []Ticket
	err = retry.Do(ctx, r.maxAttempts, r.retryDelay, retry.Always, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
		if reqErr != nil {
			return fmt.Errorf("failed to build push request: %w", reqErr)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")

		resp, doErr := r.httpClient.Do(req)
		if doErr != nil {
			return fmt.Errorf("push request failed: %w", doErr)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("push API error: %s", string(text))
		}

		var parsed pushResponse
		if decErr := json.NewDecoder(resp.Body).Decode(&parsed); decErr != nil {
			return fmt.Errorf("failed to decode push response: %w", decErr)
		}
		tickets = parsed.Data
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tickets, nil
}
