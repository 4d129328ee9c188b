package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	ErrCodeValidation  = "validation_error"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeUnavailable = "unavailable"
	ErrCodeInternal    = "internal"
)

// Error is the canonical error type surfaced to API callers and logged by
// the workers. Retryable distinguishes transient infrastructure failures
// from terminal ones.
type Error struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewValidationError reports bad registration input. Never retried.
func NewValidationError(message string, details map[string]any) *Error {
	return &Error{Code: ErrCodeValidation, Message: message, Details: details}
}

// NewNotFoundError reports an unknown resource id.
func NewNotFoundError(resource, id string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s '%s' not found.", resource, id),
		Details: map[string]any{
			"resource_type": resource,
			"resource_id":   id,
		},
	}
}

// NewConflictError reports a lost conditional update. Expected under
// concurrency; the loser treats the operation as already satisfied.
func NewConflictError(message string, details map[string]any) *Error {
	return &Error{Code: ErrCodeConflict, Message: message, Details: details}
}

// NewUnavailableError reports a transient store or queue failure.
func NewUnavailableError(message string) *Error {
	return &Error{Code: ErrCodeUnavailable, Message: message, Retryable: true}
}

// NewInternalError reports an unexpected server-side failure.
func NewInternalError(message string) *Error {
	return &Error{Code: ErrCodeInternal, Message: message}
}

// IsNotFound reports whether err is (or wraps) a not_found Error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeNotFound
}

// IsConflict reports whether err is (or wraps) a conflict Error.
func IsConflict(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeConflict
}

// HTTPStatus maps an error code to an HTTP status code.
func HTTPStatus(code string) int {
	switch code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
