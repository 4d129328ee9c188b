package core

import "context"

// Backend is the durable store surface consumed by the registration API.
// The pipeline workers use narrower interfaces declared in their own
// packages; the NATS backend satisfies all of them.
type Backend interface {
	// CreateTimer validates and persists a new timer, returning the
	// stored record with its assigned id.
	CreateTimer(ctx context.Context, req *CreateTimerRequest) (*Timer, error)

	// GetTimer returns the record for id, or a not_found error.
	GetTimer(ctx context.Context, id string) (*Timer, error)

	// Health reports backend connectivity.
	Health(ctx context.Context) (*HealthResponse, error)

	// ListDeadLetters returns fire deliveries that exhausted their retry
	// budget, paginated, plus the total count.
	ListDeadLetters(ctx context.Context, limit, offset int) ([]*DeadLetter, int, error)

	// RetryDeadLetter re-publishes the fire message for a dead-lettered
	// timer and removes the dead-letter entry.
	RetryDeadLetter(ctx context.Context, timerID string) error

	// DeleteDeadLetter discards a dead-letter entry.
	DeleteDeadLetter(ctx context.Context, timerID string) error
}

// DeadLetter records a fire delivery that exhausted its retry budget.
// The timer itself remains pending; the entry is held for operator
// inspection.
type DeadLetter struct {
	TimerID     string `json:"timer_id"`
	CallbackURL string `json:"callback_url,omitempty"`
	Attempts    int    `json:"attempts"`
	LastError   string `json:"last_error,omitempty"`
	DeadAt      string `json:"dead_at"`
}

// HealthResponse reports service and backend health.
type HealthResponse struct {
	Status        string        `json:"status"`
	Version       string        `json:"version"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Backend       BackendHealth `json:"backend"`
}

// BackendHealth reports the state of the durable store connection.
type BackendHealth struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}
