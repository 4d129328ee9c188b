package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/firebell/firebell/internal/core"
)

// ErrorResponse is the envelope for all error payloads.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the error details plus the request id, so a caller
// can quote it when reporting a problem.
type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable"`
	RequestID string         `json:"request_id,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError writes err as a JSON error response. Non-core errors are
// wrapped as internal before serialization.
func WriteError(w http.ResponseWriter, err error) {
	coreErr, ok := err.(*core.Error)
	if !ok {
		coreErr = core.NewInternalError(err.Error())
	}
	WriteJSON(w, core.HTTPStatus(coreErr.Code), ErrorResponse{Error: ErrorBody{
		Code:      coreErr.Code,
		Message:   coreErr.Message,
		Details:   coreErr.Details,
		Retryable: coreErr.Retryable,
		RequestID: w.Header().Get("X-Request-Id"),
	}})
}
