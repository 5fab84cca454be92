package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/service"
)

// PhoneHandler handles HTTP requests for the subscriber roster
type PhoneHandler struct {
	subscriberService *service.SubscriberService
}

// NewPhoneHandler creates a new phone handler
func NewPhoneHandler(subscriberService *service.SubscriberService) *PhoneHandler {
	return &PhoneHandler{
		subscriberService: subscriberService,
	}
}

// SubscribeRequest represents a subscription request
type SubscribeRequest struct {
	Phone     string  `json:"phone"`
	Platform  string  `json:"platform"`
	PushToken *string `json:"push_token,omitempty"`
}

// UnsubscribeRequest represents an unsubscription request
type UnsubscribeRequest struct {
	Phone string `json:"phone"`
}

// Subscribe handles POST /api/phone - registers a phone number and
// catches it up on active campaigns
func (h *PhoneHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	result, err := h.subscriberService.Subscribe(r.Context(), req.Phone, models.Platform(req.Platform), req.PushToken)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, result)
}

// Unsubscribe handles DELETE /api/phone - removes a phone number
func (h *PhoneHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req UnsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	if err := h.subscriberService.Unsubscribe(r.Context(), req.Phone); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

// List handles GET /api/phone - lists all subscribers
func (h *PhoneHandler) List(w http.ResponseWriter, r *http.Request) {
	subscribers, err := h.subscriberService.List(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, map[string]interface{}{"phone_numbers": subscribers})
}
