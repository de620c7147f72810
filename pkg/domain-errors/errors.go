// Package domainerrors provides coded errors for the service boundary.
//
// Stores surface sentinel errors (pkg/platform/sentinel); services translate
// them into coded errors here so transports can map codes to wire responses
// without inspecting infrastructure error chains.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers.
type Code string

const (
	// CodeValidation marks client input that fails structural validation.
	CodeValidation Code = "validation"
	// CodeBadRequest marks a request the transport could not parse.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks a missing entity.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a create that collided with an existing key.
	CodeConflict Code = "conflict"
	// CodeUnavailable marks a dependency that is temporarily unreachable.
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks everything the caller cannot act on.
	CodeInternal Code = "internal_error"
	// CodeInvariantViolation marks a broken domain invariant; callers should
	// treat it as a programming error, not retry.
	CodeInvariantViolation Code = "invariant_violation"
)

// Error carries a code and a human-readable message, optionally wrapping an
// underlying cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs a coded error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error is not coded.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
