package core

import (
	"fmt"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "not_found", Message: "Timer 'abc' not found."}
	got := err.Error()
	want := "[not_found] Timer 'abc' not found."
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("bad input", map[string]any{"field": "url"})
	if err.Code != ErrCodeValidation {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeValidation)
	}
	if err.Retryable {
		t.Error("expected Retryable = false")
	}
	if err.Details["field"] != "url" {
		t.Errorf("Details[field] = %v, want %q", err.Details["field"], "url")
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("Timer", "123")
	if err.Code != ErrCodeNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeNotFound)
	}
	if err.Details["resource_type"] != "Timer" {
		t.Errorf("Details[resource_type] = %v, want %q", err.Details["resource_type"], "Timer")
	}
	if err.Details["resource_id"] != "123" {
		t.Errorf("Details[resource_id] = %v, want %q", err.Details["resource_id"], "123")
	}
}

func TestNewConflictError(t *testing.T) {
	err := NewConflictError("already fired", map[string]any{"timer_id": "abc"})
	if err.Code != ErrCodeConflict {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeConflict)
	}
	if err.Retryable {
		t.Error("expected Retryable = false")
	}
}

func TestNewUnavailableError_Retryable(t *testing.T) {
	err := NewUnavailableError("store unreachable")
	if err.Code != ErrCodeUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeUnavailable)
	}
	if !err.Retryable {
		t.Error("expected Retryable = true")
	}
}

func TestIsNotFound(t *testing.T) {
	err := NewNotFoundError("Timer", "x")
	if !IsNotFound(err) {
		t.Error("IsNotFound(not_found error) = false, want true")
	}
	wrapped := fmt.Errorf("loading record: %w", err)
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound(wrapped) = false, want true")
	}
	if IsNotFound(NewInternalError("boom")) {
		t.Error("IsNotFound(internal error) = true, want false")
	}
	if IsNotFound(nil) {
		t.Error("IsNotFound(nil) = true, want false")
	}
}

func TestIsConflict(t *testing.T) {
	if !IsConflict(NewConflictError("lost the race", nil)) {
		t.Error("IsConflict(conflict error) = false, want true")
	}
	if IsConflict(NewNotFoundError("Timer", "x")) {
		t.Error("IsConflict(not_found error) = true, want false")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeUnavailable, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"unknown", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.code); got != tt.want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
