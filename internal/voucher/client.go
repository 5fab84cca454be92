// Package voucher wraps the external voucher-issuing API.
package voucher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jeffreyshi17/coffree/internal/metrics"
	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/retry"
)

// Error payload codes the voucher service is known to return
const (
	codeInvalidCampaign = 107
	codeExpiredCampaign = 108
)

// sendRequest is the JSON body of a send call
type sendRequest struct {
	CampaignID       string `json:"campaignId"`
	MarketingChannel string `json:"marketingChannel"`
	Platform         string `json:"platform"`
	PhoneNumber      string `json:"phoneNumber"`
}

// errorPayload is the loosely-typed error body of a failed send call.
// The service is third-party and can change without notice; every field
// is optional.
type errorPayload struct {
	ID            int    `json:"id"`
	DeveloperText string `json:"developerText"`
	UserText      string `json:"userText"`
}

// Client calls the voucher service with a fixed retry policy
type Client struct {
	httpClient  *http.Client
	endpoint    string
	maxAttempts int
	retryDelay  time.Duration
}

// NewClient creates a voucher client. The timeout bounds each attempt;
// maxAttempts and retryDelay control the retry policy for transport
// failures (HTTP error responses are classified immediately, never
// retried).
func NewClient(endpoint string, timeout time.Duration, maxAttempts int, retryDelay time.Duration) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    endpoint,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
}

// Send submits one voucher request for a phone and campaign and
// classifies the response. It never returns an error: transport
// failures after exhausting retries come back as NetworkFailure.
func (c *Client) Send(ctx context.Context, phone string, platform models.Platform, campaignID, marketingChannel string) Outcome {
	body, err := json.Marshal(sendRequest{
		CampaignID:       campaignID,
		MarketingChannel: marketingChannel,
		Platform:         apiPlatform(platform),
		PhoneNumber:      phone,
	})
	if err != nil {
		return record(Outcome{Kind: Unknown, Message: fmt.Sprintf("failed to encode request: %v", err)})
	}

	var outcome Outcome
	err = retry.Do(ctx, c.maxAttempts, c.retryDelay, retry.Always, func() error {
		o, attemptErr := c.attempt(ctx, body)
		if attemptErr != nil {
			return attemptErr
		}
		outcome = o
		return nil
	})
	if err != nil {
		return record(Outcome{Kind: NetworkFailure, Message: "Network error"})
	}

	return record(outcome)
}

// attempt performs a single HTTP call. A returned error is a transport
// failure and is retryable; application-level rejections are classified
// into an Outcome.
func (c *Client) attempt(ctx context.Context, body []byte) (Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json; v=1")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("voucher request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Outcome{Kind: Accepted}, nil
	}

	var payload errorPayload
	// An undecodable error body still carries a definite HTTP rejection,
	// so classify it rather than retry.
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	return classify(payload), nil
}

// classify maps an error payload onto an Outcome. Precedence: known
// numeric codes, then campaign-related text, then phone-related text,
// then Unknown.
func classify(p errorPayload) Outcome {
	text := p.DeveloperText
	if text == "" {
		text = p.UserText
	}
	lower := strings.ToLower(text)

	if p.ID == codeInvalidCampaign || strings.Contains(lower, "invalid campaign") {
		return Outcome{Kind: CampaignInvalid, Message: orDefault(text, "Invalid Campaign Id")}
	}
	if p.ID == codeExpiredCampaign || strings.Contains(lower, "expired") {
		return Outcome{Kind: CampaignExpired, Message: orDefault(text, "Campaign Expired")}
	}
	if (strings.Contains(lower, "phone") || strings.Contains(lower, "number")) && strings.Contains(lower, "invalid") {
		return Outcome{Kind: PhoneInvalid, Message: text}
	}

	return Outcome{Kind: Unknown, Message: orDefault(text, "Failed to send")}
}

// apiPlatform maps our platform enum onto the voucher service's values
func apiPlatform(p models.Platform) string {
	if p == models.PlatformApple {
		return "iOS"
	}
	return "android"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func record(o Outcome) Outcome {
	metrics.RecordVoucherSend(o.Kind.String())
	return o
}
