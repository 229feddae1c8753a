package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/strikkeguide/internal/domain"
)

// Messages shown for failures whose details stay in the log.
const (
	msgAcquisition = "Could not read the file."
	msgSchema      = "Could not understand the pattern's structure."
	msgExtraction  = "Could not extract the pattern. Please try again later."
	msgInternal    = "An unexpected error occurred. Please try again."
)

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a service error onto a status code and a message
// that does not leak internals. op names the failed operation in the log.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrAcquisition):
		slog.Warn(op, "error", err)
		writeError(w, timeoutOr(err, http.StatusUnprocessableEntity), msgAcquisition)
	case errors.Is(err, domain.ErrSchemaViolation):
		slog.Warn(op, "error", err)
		writeError(w, http.StatusUnprocessableEntity, msgSchema)
	case errors.Is(err, domain.ErrExtraction):
		slog.Warn(op, "error", err)
		writeError(w, timeoutOr(err, http.StatusBadGateway), msgExtraction)
	case errors.Is(err, context.DeadlineExceeded):
		slog.Warn(op, "error", err)
		writeError(w, http.StatusGatewayTimeout, "The request took too long.")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Too many imports. Please wait a moment.")
	default:
		slog.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// timeoutOr returns 504 for errors caused by an expired deadline and status
// otherwise.
func timeoutOr(err error, status int) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return status
}

// readJSON decodes the request body into the given destination.
func readJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// pathID parses the {name} path value as a positive int64.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}
