package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jeffreyshi17/coffree/internal/service"
)

// DiscoveryHandler accepts links found by external scrapers
type DiscoveryHandler struct {
	discoveryService *service.DiscoveryService
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoveryService *service.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoveryService: discoveryService,
	}
}

// DiscoveredLinkRequest represents one scraped voucher link
type DiscoveredLinkRequest struct {
	Link            string  `json:"link"`
	RedditPostURL   *string `json:"reddit_post_url,omitempty"`
	RedditSubreddit *string `json:"reddit_subreddit,omitempty"`
}

// Enqueue handles POST /api/discovered-links - queues a scraped link
// for the worker to validate and distribute
func (h *DiscoveryHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req DiscoveredLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	job, err := h.discoveryService.Enqueue(req.Link, req.RedditPostURL, req.RedditSubreddit)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, job)
}
