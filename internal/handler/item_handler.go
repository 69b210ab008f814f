package handler

import (
	"encoding/json"
	"net/http"

	"catalog-sync/internal/model"
	"catalog-sync/internal/service"

	"github.com/rs/zerolog"
)

// ItemHandler handles single-item lookup HTTP requests.
type ItemHandler struct {
	service service.ItemService
	logger  zerolog.Logger
}

// NewItemHandler creates a new item handler.
func NewItemHandler(service service.ItemService, logger zerolog.Logger) *ItemHandler {
	return &ItemHandler{
		service: service,
		logger:  logger.With().Str("handler", "item").Logger(),
	}
}

// lookupRequest is the request body for a single-item lookup.
type lookupRequest struct {
	ASIN        string            `json:"asin"`
	Credentials model.Credentials `json:"credentials"`
}

// Lookup handles POST /api/items/lookup requests. It signs and issues
// one catalog call and relays the upstream response body verbatim.
func (h *ItemHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInvalidJSON, "method not allowed", h.logger)
		return
	}

	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	body, err := h.service.Lookup(r.Context(), req.ASIN, req.Credentials)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
