package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and code.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("error", code).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps a service-layer error to an HTTP response:
// validation failures are 400, upstream catalog failures are 502,
// everything else is 500.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeError(w, http.StatusBadRequest, domainErr.Code, domainErr.Message, logger)
		return
	}

	var upstreamErr *catalog.UpstreamError
	if errors.As(err, &upstreamErr) {
		writeError(w, http.StatusBadGateway, model.ErrCodeUpstream, upstreamErr.Error(), logger)
		return
	}

	writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
}
