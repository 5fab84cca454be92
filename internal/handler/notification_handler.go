package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jeffreyshi17/coffree/internal/service"
)

// NotificationHandler handles manual push notification requests
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// SendNotificationRequest represents a manual push request
type SendNotificationRequest struct {
	CampaignID       string `json:"campaign_id"`
	MarketingChannel string `json:"marketing_channel"`
	Title            string `json:"title"`
	Body             string `json:"body"`
}

// Send handles POST /api/notifications/send - pushes an alert to every
// subscriber with a push token
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	if req.Title == "" || req.Body == "" {
		WriteValidationError(w, "title and body are required")
		return
	}

	result, err := h.notificationService.NotifyCampaign(r.Context(), req.CampaignID, req.MarketingChannel, req.Title, req.Body)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}
