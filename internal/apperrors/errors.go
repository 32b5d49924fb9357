// Package apperrors defines the caller-facing error taxonomy of the engine.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels matched with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateName    = errors.New("duplicate name")
	ErrDuplicateTitle   = errors.New("duplicate title")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrValidation       = errors.New("validation failed")
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFound reports a missing user or task.
func NewNotFound(resource string, details map[string]any) error {
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
		Err:        ErrNotFound,
	}
}

// NewDuplicateName reports a user name already held by another live user.
func NewDuplicateName(name string) error {
	return &DomainError{
		Code:       "DUPLICATE_NAME",
		Message:    fmt.Sprintf("user with name '%s' already exists", name),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"name": name},
		Err:        ErrDuplicateName,
	}
}

// NewDuplicateTitle reports a task title already held by another live task.
func NewDuplicateTitle(title string) error {
	return &DomainError{
		Code:       "DUPLICATE_TITLE",
		Message:    fmt.Sprintf("task with title '%s' already exists", title),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"title": title},
		Err:        ErrDuplicateTitle,
	}
}

// NewCapacityExceeded reports that an assignment would exceed the per-user limit.
func NewCapacityExceeded(userID string, limit int) error {
	return &DomainError{
		Code:       "CAPACITY_EXCEEDED",
		Message:    fmt.Sprintf("user already has the maximum number of tasks (%d)", limit),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"user_id": userID, "limit": limit},
		Err:        ErrCapacityExceeded,
	}
}

// NewValidation reports malformed input.
func NewValidation(message string) error {
	return &DomainError{
		Code:       "VALIDATION_FAILED",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        ErrValidation,
	}
}

// ToDomainError converts generic errors to DomainError. Unknown errors map to
// an internal error that keeps the cause for logging.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
