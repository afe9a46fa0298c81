package session

import (
	"errors"
	"fmt"
)

// Error represents a session-related error
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Error codes for session operations
const (
	ErrNotFound   = "SESSION_NOT_FOUND"
	ErrExpired    = "SESSION_EXPIRED"
	ErrInvalid    = "SESSION_INVALID"
	ErrGeneration = "SESSION_GENERATION_FAILED"
	ErrStorage    = "SESSION_STORAGE_ERROR"
)

// Code extracts the session error code from err, or "" if err is not a
// session error.
func Code(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func newNotFoundError(sessionID string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("session not found: %s", sessionID),
	}
}

func newExpiredError(sessionID string) *Error {
	return &Error{
		Code:    ErrExpired,
		Message: fmt.Sprintf("session expired: %s", sessionID),
	}
}

func newInvalidError(reason string) *Error {
	return &Error{
		Code:    ErrInvalid,
		Message: fmt.Sprintf("session invalid: %s", reason),
	}
}

func newGenerationError(cause error) *Error {
	return &Error{
		Code:    ErrGeneration,
		Message: "failed to generate session ID",
		Cause:   cause,
	}
}

func newStorageError(operation string, cause error) *Error {
	return &Error{
		Code:    ErrStorage,
		Message: fmt.Sprintf("session storage error during %s", operation),
		Cause:   cause,
	}
}
