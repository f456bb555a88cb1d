// Package domainerrors provides coded errors shared across praxis services.
//
// Services wrap infrastructure errors into coded errors at the boundary where
// they become domain-meaningful; handlers translate codes into HTTP statuses.
// Import with the dErrors alias:
//
//	dErrors "praxis/pkg/domain-errors"
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of domain error. Codes are stable and appear on the
// wire in error envelopes, so they are snake_case strings.
type Code string

// Generic codes.
const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"
)

// Synchronization codes. These map the engine's failure modes: an update that
// never reached the authoritative store, a downstream system that rejected a
// propagated change, an operation that ran out of retry budget, and a
// compensating write that itself failed.
const (
	CodeApplyFailed       Code = "apply_failed"
	CodePropagationFailed Code = "propagation_failed"
	CodeRetriesExhausted  Code = "retries_exhausted"
	CodeRollbackFailed    Code = "rollback_failed"
)

// Error is a coded error with an operator-facing message and an optional
// wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match coded errors against a freshly constructed target:
//
//	errors.Is(err, dErrors.New(dErrors.CodeNotFound, "profile not found"))
//
// Codes must match; the target's message is compared only when set, so an
// empty-message target matches any error with the same code.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Code != te.Code {
		return false
	}
	return te.Message == "" || e.Message == te.Message
}

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates err with a code and message. Returns nil if err is nil so it
// can be used on the happy path of a call chain.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in err's chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is shorthand for HasCode, reading naturally in assertions:
//
//	dErrors.Is(err, dErrors.CodeNotFound)
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in err's chain, or CodeInternal when err
// carries no code. Unknown failures must never leak more than that.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost coded message, or empty for uncoded errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps a code to the HTTP status handlers respond with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeRetriesExhausted:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodePropagationFailed:
		return http.StatusBadGateway
	case CodeApplyFailed, CodeRollbackFailed, CodeInternal, CodeInvariantViolation:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
