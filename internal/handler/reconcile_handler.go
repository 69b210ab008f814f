package handler

import (
	"net/http"

	"catalog-sync/internal/model"
	"catalog-sync/internal/service"

	"github.com/rs/zerolog"
)

// ReconcileHandler handles batch reconciliation HTTP requests.
type ReconcileHandler struct {
	service service.ReconcileService
	logger  zerolog.Logger
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(service service.ReconcileService, logger zerolog.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		service: service,
		logger:  logger.With().Str("handler", "reconcile").Logger(),
	}
}

// Run handles POST /api/reconcile requests. The request takes no body;
// the response is the run summary.
func (h *ReconcileHandler) Run(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInvalidJSON, "method not allowed", h.logger)
		return
	}

	summary, err := h.service.Run(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("reconciliation run failed")
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
