// Package domainerrors defines the error taxonomy shared by all services.
//
// Stores and infrastructure return sentinel errors (pkg/platform/sentinel);
// services translate those into coded domain errors at the boundary so
// handlers can map them to HTTP statuses without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. The string value is the wire-level error
// code returned to clients.
type Code string

const (
	// CodeValidation covers bad input shape or range: missing required
	// certificate fields, CGPA outside [0, 10], too-short revocation reason.
	CodeValidation Code = "validation_error"

	// CodeBadRequest covers malformed requests (unparseable JSON, bad IDs).
	CodeBadRequest Code = "bad_request"

	// CodeNotFound indicates the referenced entity does not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict indicates a state conflict, such as revoking an
	// already-revoked certificate or registering a duplicate university.
	CodeConflict Code = "conflict"

	// CodeUnauthorized indicates missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden indicates the caller is authenticated but not allowed,
	// e.g. an unverified university attempting issuance.
	CodeForbidden Code = "forbidden"

	// CodeInvariantViolation indicates a domain invariant would be broken.
	// Services usually translate this into CodeConflict before it reaches
	// the transport layer.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeUnavailable indicates a transient infrastructure failure (store
	// timeout, cache outage). Safe to retry with backoff.
	CodeUnavailable Code = "unavailable"

	// CodeInternal covers crypto subsystem failures and other faults that
	// are not the caller's doing. Not retried automatically.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. It optionally wraps a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Is / errors.As.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code carried by err, or CodeInternal when err is not a
// domain error.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
