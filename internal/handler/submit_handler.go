package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/service"
)

// SubmitHandler handles voucher link submissions
type SubmitHandler struct {
	distributionService *service.DistributionService
}

// NewSubmitHandler creates a new submit handler
func NewSubmitHandler(distributionService *service.DistributionService) *SubmitHandler {
	return &SubmitHandler{
		distributionService: distributionService,
	}
}

// SubmitLinkRequest represents a link submission
type SubmitLinkRequest struct {
	Link string `json:"link"`
}

// Submit handles POST /api/send-coffee - validates and distributes a
// voucher link to all subscribers
func (h *SubmitHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	result, err := h.distributionService.SubmitLink(r.Context(), req.Link, models.SourceManual)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}
