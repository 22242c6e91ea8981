// Package errors provides the application error taxonomy for the cashbook API.
// Every service-layer failure is an *AppError so that handlers can map it to a
// stable status code and a display-ready payload without leaking internals.
package errors

import (
	stderrors "errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, optional details payload and
// optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Details    any    `json:"details,omitempty"`
	Internal   error  `json:"-"`
}

// Violation describes a single failed field constraint.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Details:    sentinel.Details,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Details:    sentinel.Details,
		Internal:   sentinel.Internal,
	}
}

// WithDetails creates a new AppError carrying a details payload for the client.
func WithDetails(sentinel *AppError, message string, details any) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Details:    details,
		Internal:   sentinel.Internal,
	}
}

// NewValidationError builds a VALIDATION_FAILED error listing every violation.
func NewValidationError(violations []Violation) *AppError {
	msg := ErrValidationFailed.Message
	if len(violations) == 1 {
		msg = violations[0].Message
	}
	return WithDetails(ErrValidationFailed, msg, violations)
}

// Violations returns the violations carried by a VALIDATION_FAILED error, or nil.
func (e *AppError) Violations() []Violation {
	v, _ := e.Details.([]Violation)
	return v
}

// HasCode reports whether err is an *AppError carrying the sentinel's code.
func HasCode(err error, sentinel *AppError) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == sentinel.Code
}

// Authentication & authorization errors.
var (
	ErrUnauthorized            = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden               = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrInvalidAPIKey           = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
	ErrServiceKeyNotConfigured = &AppError{Code: "SERVICE_KEY_NOT_CONFIGURED", Message: "Maintenance endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
)

// General errors.
var (
	ErrInvalidInput     = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrValidationFailed = &AppError{Code: "VALIDATION_FAILED", Message: "One or more fields are invalid", StatusCode: http.StatusBadRequest}
	ErrNotFound         = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInvalidReference = &AppError{Code: "INVALID_REFERENCE", Message: "Referenced resource does not exist", StatusCode: http.StatusUnprocessableEntity}
	ErrInternalServer   = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
)

// Movement errors.
var (
	ErrMovementNotFound = &AppError{Code: "MOVEMENT_NOT_FOUND", Message: "Movement not found", StatusCode: http.StatusNotFound}
)

// Catalog errors.
var (
	ErrCatalogEntryNotFound    = &AppError{Code: "CATALOG_ENTRY_NOT_FOUND", Message: "Catalog entry not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCatalogEntry   = &AppError{Code: "DUPLICATE_CATALOG_ENTRY", Message: "A catalog entry with this name already exists", StatusCode: http.StatusConflict}
	ErrInvalidStatusTransition = &AppError{Code: "INVALID_STATUS_TRANSITION", Message: "Catalog entry status transition is not allowed", StatusCode: http.StatusConflict}
)
