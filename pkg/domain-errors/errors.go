// Package domainerrors defines the typed error vocabulary shared by all
// services. Every expected failure crossing a service boundary carries one of
// the codes below; transports map codes to their own status vocabulary.
package domainerrors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a domain failure. Codes are stable API: handlers and
// clients switch on them, so renaming one is a breaking change.
type ErrorCode string

const (
	// CodeNotFound - the referenced entity does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"
	// CodeForbidden - the actor lacks the capability, or violates an
	// ownership rule (e.g. approving its own submission).
	CodeForbidden ErrorCode = "PERMISSION_DENIED"
	// CodeUnauthorized - the caller presented no usable identity.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// CodeValidation - a required field is missing or malformed.
	CodeValidation ErrorCode = "VALIDATION_ERROR"
	// CodeInvariantViolation - the operation is not legal from the entity's
	// current state (wrong lifecycle status, double archive).
	CodeInvariantViolation ErrorCode = "INVALID_STATE"
	// CodeConflict - a concurrent writer won; retry may succeed.
	CodeConflict ErrorCode = "CONFLICT"
	// CodeInvalidInput - input rejected at a trust boundary (bad UUID, bad enum).
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	// CodeBadRequest - the request shape itself is unusable.
	CodeBadRequest ErrorCode = "BAD_REQUEST"
	// CodeInternal - unexpected infrastructure failure, caught at the
	// service boundary and never propagated as a panic.
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error is a code-carrying domain error. Wrapped causes stay reachable via
// errors.Is / errors.As.
type Error struct {
	code    ErrorCode
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error { return e.cause }

// Message returns the human-readable message without the code prefix.
func (e *Error) Message() string { return e.message }

// New constructs a domain error with a code and message.
func New(code ErrorCode, message string) error {
	return &Error{code: code, message: message}
}

// Newf constructs a domain error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. A nil cause
// returns nil so call sites can wrap unconditionally.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &Error{code: code, message: message, cause: err}
}

// Code extracts the ErrorCode from err, walking the wrap chain. Errors that
// never passed through this package report CodeInternal.
func Code(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}

// HasCode reports whether err (anywhere in its chain) carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.code == code
	}
	return false
}
