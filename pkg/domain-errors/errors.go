// Package domainerrors defines the error taxonomy shared by services and the
// HTTP layer. Services construct these; handlers translate them to status
// codes and JSON envelopes. Infrastructure never returns them directly — see
// pkg/platform/sentinel for the store-level counterparts.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure. The string form is the wire-level error
// code returned to clients.
type Code string

const (
	CodeValidation Code = "validation_error"
	CodeBadRequest Code = "bad_request"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeInternal   Code = "internal_error"

	// Provisioning failures: not fixable by the caller.
	CodeNoIssuerAvailable  Code = "no_issuer_available"
	CodeCircuitUnavailable Code = "circuit_unavailable"

	// Replay rejection. Expected and non-exceptional: a nullifier was already
	// consumed by a prior successful verification.
	CodeNullifierReuse Code = "nullifier_reuse"

	// Verification-request state machine violations. A new request is needed;
	// retrying the old one cannot succeed.
	CodeAlreadyFinalized Code = "already_finalized"
	CodeRequestExpired   Code = "request_expired"
)

// Error carries a code plus a human-readable message and optionally wraps a
// cause. It satisfies errors.Is/As chains through Unwrap.
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

func (e *Error) Unwrap() error { return e.cause }

// New constructs a domain error with the given code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability in handlers.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps domain codes to HTTP status codes.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeNullifierReuse, CodeAlreadyFinalized:
		return http.StatusConflict
	case CodeRequestExpired:
		return http.StatusGone
	case CodeNoIssuerAvailable, CodeCircuitUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
