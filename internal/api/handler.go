// Package api exposes the timer registration and operator HTTP
// endpoints.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/firebell/firebell/internal/core"
)

// Handler serves the HTTP API over a core.Backend.
type Handler struct {
	backend core.Backend
}

// NewHandler creates a Handler.
func NewHandler(backend core.Backend) *Handler {
	return &Handler{backend: backend}
}

// CreateTimer handles POST /timers.
func (h *Handler) CreateTimer(w http.ResponseWriter, r *http.Request) {
	var req core.CreateTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewValidationError("invalid JSON body", map[string]any{"error": err.Error()}))
		return
	}

	timer, err := h.backend.CreateTimer(r.Context(), &req)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"id": timer.ID})
}

// timerResponse is the GET /timers/{id} payload. time_left is computed
// at response time and never negative.
type timerResponse struct {
	ID        string `json:"id"`
	FireAt    int64  `json:"fire_at"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	TimeLeft  int64  `json:"time_left"`
}

// GetTimer handles GET /timers/{id}.
func (h *Handler) GetTimer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	timer, err := h.backend.GetTimer(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, timerResponse{
		ID:        timer.ID,
		FireAt:    timer.FireAt,
		URL:       timer.CallbackURL,
		Status:    timer.Status,
		CreatedAt: timer.CreatedAt,
		TimeLeft:  timer.TimeLeft(time.Now().Unix()),
	})
}

// Health handles GET /healthz. A degraded backend still returns the
// health document, with a 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp, err := h.backend.Health(r.Context())
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// ListDeadLetters handles GET /deadletter.
func (h *Handler) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit < 1 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, total, err := h.backend.ListDeadLetters(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []*core.DeadLetter{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"dead_letters": entries,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

// RetryDeadLetter handles POST /deadletter/{id}/retry.
func (h *Handler) RetryDeadLetter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.backend.RetryDeadLetter(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"id": id, "retried": true})
}

// DeleteDeadLetter handles DELETE /deadletter/{id}.
func (h *Handler) DeleteDeadLetter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.backend.DeleteDeadLetter(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	if val := r.URL.Query().Get(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
