package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/repository"
	"github.com/jeffreyshi17/coffree/internal/service"
)

// CampaignHandler handles HTTP requests for campaign records
type CampaignHandler struct {
	campaignService *service.CampaignService
	cleanupService  *service.CleanupService
	gapService      *service.GapService
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(
	campaignService *service.CampaignService,
	cleanupService *service.CleanupService,
	gapService *service.GapService,
) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		cleanupService:  cleanupService,
		gapService:      gapService,
	}
}

// CreateCampaignRequest represents a direct campaign registration
type CreateCampaignRequest struct {
	CampaignID       string  `json:"campaign_id"`
	MarketingChannel string  `json:"marketing_channel"`
	FullLink         string  `json:"full_link"`
	Source           string  `json:"source"`
	Notes            *string `json:"notes,omitempty"`
	RedditPostURL    *string `json:"reddit_post_url,omitempty"`
	RedditSubreddit  *string `json:"reddit_subreddit,omitempty"`
}

// Create handles POST /api/campaigns - registers a campaign record
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	source := models.Source(req.Source)
	if req.Source == "" {
		source = models.SourceManual
	}

	campaign := &models.Campaign{
		CampaignID:       req.CampaignID,
		MarketingChannel: req.MarketingChannel,
		FullLink:         req.FullLink,
		Source:           source,
		IsValid:          true,
		Notes:            req.Notes,
		RedditPostURL:    req.RedditPostURL,
		RedditSubreddit:  req.RedditSubreddit,
	}

	if err := h.campaignService.Create(r.Context(), campaign); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, campaign)
}

// List handles GET /api/campaigns - lists campaigns with filters
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := repository.CampaignFilters{}

	if sourceStr := query.Get("source"); sourceStr != "" {
		source := models.Source(sourceStr)
		if source != models.SourceAuto && source != models.SourceManual {
			WriteValidationError(w, "invalid source: must be 'auto' or 'manual'")
			return
		}
		filters.Source = &source
	}

	if validStr := query.Get("is_valid"); validStr != "" {
		isValid, err := strconv.ParseBool(validStr)
		if err != nil {
			WriteValidationError(w, "is_valid must be true or false")
			return
		}
		filters.IsValid = &isValid
	}

	if expiredStr := query.Get("is_expired"); expiredStr != "" {
		isExpired, err := strconv.ParseBool(expiredStr)
		if err != nil {
			WriteValidationError(w, "is_expired must be true or false")
			return
		}
		filters.IsExpired = &isExpired
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filters.Limit = limit
		}
	}

	campaigns, err := h.campaignService.List(r.Context(), filters)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, map[string]interface{}{"campaigns": campaigns})
}

// Count handles GET /api/campaigns/count - counts redeemable campaigns
func (h *CampaignHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.campaignService.CountValid(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, map[string]int{"count": count})
}

// Update handles PATCH /api/campaigns/{campaignID} - partial update
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	campaignID := mux.Vars(r)["campaignID"]

	var req service.CampaignUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	campaign, err := h.campaignService.Update(r.Context(), campaignID, req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, campaign)
}

// Delete handles DELETE /api/campaigns/{campaignID}
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	campaignID := mux.Vars(r)["campaignID"]

	if err := h.campaignService.Delete(r.Context(), campaignID); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

// CheckSubmitted handles GET /api/check-campaign?cid=xxx. campaign_id
// is accepted as an alias.
func (h *CampaignHandler) CheckSubmitted(w http.ResponseWriter, r *http.Request) {
	campaignID := r.URL.Query().Get("cid")
	if campaignID == "" {
		campaignID = r.URL.Query().Get("campaign_id")
	}

	status, err := h.campaignService.CheckSubmitted(r.Context(), campaignID)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, status)
}

// PreviewCleanup handles GET /api/campaigns/cleanup - dry run
func (h *CampaignHandler) PreviewCleanup(w http.ResponseWriter, r *http.Request) {
	report, err := h.cleanupService.Preview(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, report)
}

// ApplyCleanup handles POST /api/campaigns/cleanup
func (h *CampaignHandler) ApplyCleanup(w http.ResponseWriter, r *http.Request) {
	report, err := h.cleanupService.Apply(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, report)
}

// FindGaps handles GET /api/campaigns/fill-gaps - reports missed sends
func (h *CampaignHandler) FindGaps(w http.ResponseWriter, r *http.Request) {
	report, err := h.gapService.FindGaps(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, report)
}

// FillGaps handles POST /api/campaigns/fill-gaps - resends missed sends
func (h *CampaignHandler) FillGaps(w http.ResponseWriter, r *http.Request) {
	result, err := h.gapService.FillGaps(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}
