// Package server wires configuration and the HTTP router.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/firebell/firebell/internal/api"
	"github.com/firebell/firebell/internal/core"
)

// NewRouter builds the HTTP router over the backend.
func NewRouter(backend core.Backend) http.Handler {
	h := api.NewHandler(backend)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(api.ServiceHeaders)
	r.Use(api.RequestLogger)
	r.Use(api.LimitBody)
	r.Use(api.ValidateContentType)

	r.Post("/timers", h.CreateTimer)
	r.Get("/timers/{id}", h.GetTimer)

	r.Get("/deadletter", h.ListDeadLetters)
	r.Post("/deadletter/{id}/retry", h.RetryDeadLetter)
	r.Delete("/deadletter/{id}", h.DeleteDeadLetter)

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
