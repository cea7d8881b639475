// Package httputil maps domain errors to HTTP responses and provides JSON
// request/response helpers shared by all handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "certverify/pkg/domain-errors"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to an HTTP status and JSON error body.
// Internal and unavailable errors omit the description so infrastructure
// details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := statusFor(code)

	resp := errorResponse{Error: string(code)}
	if status < http.StatusInternalServerError {
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			resp.ErrorDescription = domainErr.Message
		}
	}
	WriteJSON(w, status, resp)
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeInvariantViolation:
		return http.StatusConflict
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Decode parses the request body into T. Malformed bodies come back as a
// bad_request domain error ready for WriteError.
func Decode[T any](r *http.Request) (T, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var zero T
		return zero, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return req, nil
}
