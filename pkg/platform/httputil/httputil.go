// Package httputil maps domain errors onto HTTP responses so handlers share
// one wire format for failures.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "github.com/vemurivi/CareerShotApi/pkg/domain-errors"
)

// statusFor maps error codes to HTTP status codes.
func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusOf returns the HTTP status a coded error maps to. Handlers that
// build richer error bodies than WriteError use it to stay on the same
// mapping.
func StatusOf(err error) int {
	return statusFor(dErrors.CodeOf(err))
}

// WriteError writes a coded error as JSON. Internal errors omit the
// description so infrastructure details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := statusFor(code)

	body := map[string]string{"error": string(code)}
	if status < http.StatusInternalServerError {
		body["error_description"] = err.Error()
	}
	WriteJSON(w, status, body)
}
