package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/repository"
	"github.com/jeffreyshi17/coffree/internal/service"
)

// LogHandler exposes delivery and discovery history
type LogHandler struct {
	logRepo          repository.DeliveryLogRepository
	searchLogService *service.SearchLogService
}

// NewLogHandler creates a new log handler
func NewLogHandler(logRepo repository.DeliveryLogRepository, searchLogService *service.SearchLogService) *LogHandler {
	return &LogHandler{
		logRepo:          logRepo,
		searchLogService: searchLogService,
	}
}

// ListDeliveries handles GET /api/logs - recent delivery log entries
func (h *LogHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)

	entries, err := h.logRepo.List(r.Context(), limit)
	if err != nil {
		WriteInternalError(w)
		return
	}

	WriteOK(w, map[string]interface{}{"logs": entries})
}

// ListSearches handles GET /api/search-logs - recent discovery runs
func (h *LogHandler) ListSearches(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)

	var status *models.SearchStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		s := models.SearchStatus(statusStr)
		if s != models.SearchSuccess && s != models.SearchFailed && s != models.SearchRunning {
			WriteValidationError(w, "invalid status: must be one of success, failed, running")
			return
		}
		status = &s
	}

	entries, err := h.searchLogService.List(r.Context(), limit, status)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, map[string]interface{}{"search_logs": entries})
}

// RecordSearchRequest represents a discovery run report
type RecordSearchRequest struct {
	SearchType         string   `json:"search_type"`
	Status             string   `json:"status"`
	CampaignsFound     int      `json:"campaigns_found"`
	NewCampaigns       int      `json:"new_campaigns"`
	SubredditsSearched []string `json:"subreddits_searched"`
	ErrorMessage       *string  `json:"error_message,omitempty"`
	DurationSeconds    *int     `json:"duration_seconds,omitempty"`
}

// RecordSearch handles POST /api/search-logs - records a discovery run
func (h *LogHandler) RecordSearch(w http.ResponseWriter, r *http.Request) {
	var req RecordSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	now := time.Now()
	entry := &models.SearchLog{
		SearchType:         req.SearchType,
		Status:             models.SearchStatus(req.Status),
		CampaignsFound:     req.CampaignsFound,
		NewCampaigns:       req.NewCampaigns,
		SubredditsSearched: req.SubredditsSearched,
		ErrorMessage:       req.ErrorMessage,
		StartedAt:          now,
		DurationSeconds:    req.DurationSeconds,
	}
	if entry.Status != models.SearchRunning {
		entry.CompletedAt = &now
	}

	if err := h.searchLogService.Record(r.Context(), entry); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, entry)
}

func parseLimit(r *http.Request, fallback int) int {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return fallback
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
