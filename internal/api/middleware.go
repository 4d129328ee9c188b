package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/firebell/firebell/internal/core"
)

// MaxBodySize is the maximum allowed request body size (1 MB).
// Registration payloads are tiny; anything larger is abuse.
const MaxBodySize = 1 << 20

// ServiceHeaders adds the version, content-type, and request-id
// response headers. The request id is echoed from the caller when
// present, generated otherwise.
func ServiceHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Firebell-Version", core.Version)
		w.Header().Set("Content-Type", "application/json")

		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = "req_" + core.NewUUIDv7()
		}
		w.Header().Set("X-Request-Id", reqID)

		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs HTTP requests with structured logging.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", w.Header().Get("X-Request-Id"),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// LimitBody restricts request body size.
func LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// ValidateContentType validates the Content-Type header for requests
// with bodies. An empty Content-Type is allowed.
func ValidateContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				WriteError(w, core.NewValidationError(
					"unsupported Content-Type; use application/json",
					map[string]any{"content_type": ct},
				))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
