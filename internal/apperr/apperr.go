package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure visible to callers.
type Code string

const (
	ErrMissingCredential  Code = "MISSING_CREDENTIAL"  // 412
	ErrInvalidRequest     Code = "INVALID_REQUEST"     // 400
	ErrNotFound           Code = "NOT_FOUND"           // 404
	ErrCalendarDisabled   Code = "CALENDAR_DISABLED"   // 409
	ErrPersistenceFailure Code = "PERSISTENCE_FAILURE" // 500
	ErrSubmissionFailed   Code = "SUBMISSION_FAILED"   // 500
	ErrInternal           Code = "INTERNAL"            // 500
)

// Error is a structured failure with a code, an HTTP status and details.
type Error struct {
	Code    Code
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewMissingCredential is returned when no API key is configured.
func NewMissingCredential() *Error {
	return &Error{
		Code:    ErrMissingCredential,
		Status:  http.StatusPreconditionFailed,
		Message: "no API key configured; update settings before submitting",
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  http.StatusBadRequest,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing research result.
func NewNotFound(id int64) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("research result not found: %d", id),
		Details: map[string]any{"id": id},
	}
}

// NewCalendarDisabled is returned when calendar export is switched off.
func NewCalendarDisabled() *Error {
	return &Error{
		Code:    ErrCalendarDisabled,
		Status:  http.StatusConflict,
		Message: "calendar integration is disabled in settings",
	}
}

// NewPersistenceFailure wraps a store error.
func NewPersistenceFailure(op string, err error) *Error {
	return &Error{
		Code:    ErrPersistenceFailure,
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("%s: %v", op, err),
		Details: map[string]any{"operation": op},
		cause:   err,
	}
}

// NewSubmissionFailed reports an unexpected failure inside the pipeline glue.
func NewSubmissionFailed(err error) *Error {
	msg := "submission failed"
	if err != nil {
		msg = fmt.Sprintf("submission failed: %v", err)
	}
	return &Error{
		Code:    ErrSubmissionFailed,
		Status:  http.StatusInternalServerError,
		Message: msg,
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  http.StatusInternalServerError,
		Message: msg,
		cause:   err,
	}
}

// Is reports whether err (or anything it wraps) is an *Error with the given code.
func Is(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// StatusOf maps any error to an HTTP status; unknown errors are 500.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
