package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/itamcloud/itam-backend/pkg/errors"
)

// ErrorResponse is the body of every failed request.
// Callers key off "error"; "code" and "details" are informational.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// JSON sends v as a JSON response
func JSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// Error sends an error response. AppErrors keep their status and message,
// anything else becomes a generic 500 so internals never leak.
func Error(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		JSON(w, appErr.StatusCode, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
		return
	}

	JSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "an unexpected error occurred",
		Code:  "INTERNAL_ERROR",
	})
}
