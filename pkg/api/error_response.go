package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adfharrison1/lookupdb/pkg/domain"
)

// ErrorResponse represents a standard JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// WriteJSONError writes a JSON error response with the given status code and message
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	json.NewEncoder(w).Encode(response)
}

// statusFor maps a domain error to the HTTP status it is reported with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCollectionNotFound), errors.Is(err, domain.ErrIndexNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSchemaConflict), errors.Is(err, domain.ErrUniquenessViolation), errors.Is(err, domain.ErrCollectionExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidSpec):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConnectionFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
