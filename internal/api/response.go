// internal/api/response.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	custom_errors "github-repo-explorer/internal/errors"
)

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithDomainError maps the error taxonomy onto HTTP statuses. The
// message of a classified error is user-facing and passed through as is.
func (h *Handler) respondWithDomainError(w http.ResponseWriter, err error) {
	var apiErr *custom_errors.APIError
	if !errors.As(err, &apiErr) {
		h.logger.Error("Unclassified error", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithError(w, statusForKind(apiErr.Kind), apiErr.Message)
}

func statusForKind(kind custom_errors.Kind) int {
	switch kind {
	case custom_errors.KindInvalidRequest:
		return http.StatusBadRequest
	case custom_errors.KindValidationRejected:
		return http.StatusUnprocessableEntity
	case custom_errors.KindNotFound:
		return http.StatusNotFound
	case custom_errors.KindRateLimited:
		return http.StatusTooManyRequests
	case custom_errors.KindNetworkUnreachable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
