package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
)

// Response helpers for consistent JSON responses

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondErrorWithCode sends an error response with an error code
func respondErrorWithCode(w http.ResponseWriter, status int, message, code string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleDomainError maps domain errors to HTTP responses
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSymbol):
		respondErrorWithCode(w, http.StatusBadRequest, "invalid symbol format", "INVALID_SYMBOL")

	case errors.Is(err, domain.ErrSummaryNotFound):
		respondErrorWithCode(w, http.StatusNotFound, "summary not found", "SUMMARY_NOT_FOUND")

	case errors.Is(err, domain.ErrJobNotFound):
		respondErrorWithCode(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")

	case errors.Is(err, domain.ErrNoBars):
		respondErrorWithCode(w, http.StatusConflict, "no bars collected for this trading day", "NO_BARS")

	case errors.Is(err, domain.ErrNotStarted):
		respondErrorWithCode(w, http.StatusConflict, "collection has not started", "NOT_STARTED")

	case errors.Is(err, domain.ErrAlreadyComplete):
		respondErrorWithCode(w, http.StatusConflict, "collection already complete", "ALREADY_COMPLETE")

	case errors.Is(err, domain.ErrProviderUnavailable):
		respondErrorWithCode(w, http.StatusServiceUnavailable, "market data provider unavailable", "PROVIDER_UNAVAILABLE")

	case errors.Is(err, domain.ErrRateLimited):
		respondErrorWithCode(w, http.StatusTooManyRequests, "rate limited by provider", "RATE_LIMITED")

	case errors.Is(err, domain.ErrInvalidResponse):
		respondErrorWithCode(w, http.StatusBadGateway, "invalid response from provider", "INVALID_PROVIDER_RESPONSE")

	default:
		respondErrorWithCode(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
