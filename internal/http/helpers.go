package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"facturas/internal/core"
)

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "error", err, "path", r.URL.Path)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, r, status, map[string]string{"error": message})
}

// respondDomainError maps the domain error taxonomy onto status codes. This
// is the only place transport learns about error kinds: validation is the
// client's fault, not-found is an empty result, an unavailable store is a
// retryable server fault.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case core.IsNotFound(err):
		respondError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrStoreUnavailable):
		slog.ErrorContext(r.Context(), "Store unavailable", "error", err, "path", r.URL.Path)
		respondError(w, r, http.StatusServiceUnavailable, "store unavailable")
	default:
		slog.ErrorContext(r.Context(), "Unhandled error", "error", err, "path", r.URL.Path)
		respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Message: "invalid invoice id"}
	}
	return id, nil
}
