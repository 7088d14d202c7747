// Package domainerrors defines coded application errors.
//
// Stores return sentinel errors (pkg/platform/sentinel); services translate
// them into coded errors from this package; the HTTP layer maps codes to
// statuses in exactly one place (pkg/platform/httputil.WriteError).
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a failure for transport mapping and branching.
type Code string

const (
	// CodeValidation marks malformed or missing input fields. The message
	// names the offending field and rule.
	CodeValidation Code = "validation_error"
	// CodeBadRequest marks an unparsable request (bad JSON, empty body).
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks an operation targeting a nonexistent record.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a uniqueness violation.
	CodeConflict Code = "conflict"
	// CodeInternal marks infrastructure failures. The message is safe to
	// surface; the wrapped cause is not.
	CodeInternal Code = "internal_error"
	// CodeTimeout marks an aborted operation (context deadline or cancel).
	CodeTimeout Code = "timeout"
)

// Error carries a code, a client-safe message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and client-safe message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var domErr *Error
	for errors.As(err, &domErr) {
		if domErr.Code == code {
			return true
		}
		err = domErr.Err
		domErr = nil
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// Message returns the client-safe message of the outermost coded error,
// or the fallback when the error is not coded.
func Message(err error, fallback string) string {
	var domErr *Error
	if errors.As(err, &domErr) {
		return domErr.Message
	}
	return fallback
}

// ToHTTPStatus maps an error code to its HTTP status. Conflicts map to 400
// because API clients treat uniqueness failures as correctable input.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeConflict:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
