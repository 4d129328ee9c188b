package core

import (
	"net/url"
	"time"
)

// Version is reported in response headers and the health endpoint.
const Version = "0.1.0"

// TimeFormat is the canonical timestamp format (UTC, millisecond precision).
const TimeFormat = "2006-01-02T15:04:05.000Z"

// Timer statuses. A timer starts pending and transitions to fired exactly
// once, via a conditional store update. It never transitions back.
const (
	StatusPending = "pending"
	StatusFired   = "fired"
)

// Timer is a one-shot timer record. ID, FireAt and CallbackURL are
// immutable once the record is written; only Status may change.
type Timer struct {
	ID          string `json:"id"`
	CallbackURL string `json:"callback_url"`
	FireAt      int64  `json:"fire_at"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// TimeLeft returns the number of whole seconds until the timer is due,
// clamped at zero once the deadline has passed.
func (t *Timer) TimeLeft(now int64) int64 {
	left := t.FireAt - now
	if left < 0 {
		return 0
	}
	return left
}

// CreateTimerRequest is the payload for registering a new timer.
type CreateTimerRequest struct {
	Hours   int    `json:"hours"`
	Minutes int    `json:"minutes"`
	Seconds int    `json:"seconds"`
	URL     string `json:"url"`
}

// Delay returns the requested delay as a duration.
func (r *CreateTimerRequest) Delay() time.Duration {
	return time.Duration(r.Hours)*time.Hour +
		time.Duration(r.Minutes)*time.Minute +
		time.Duration(r.Seconds)*time.Second
}

// ComputeFireAt returns the epoch-second deadline for a delay registered
// at the given time.
func ComputeFireAt(now time.Time, hours, minutes, seconds int) int64 {
	return now.Unix() + int64(hours)*3600 + int64(minutes)*60 + int64(seconds)
}

// ValidateCreateTimerRequest checks a registration request. Each delay
// component must be a non-negative integer, the total delay must be
// positive, and the callback URL must be an absolute http(s) URL.
func ValidateCreateTimerRequest(req *CreateTimerRequest) *Error {
	if req.Hours < 0 || req.Minutes < 0 || req.Seconds < 0 {
		return NewValidationError("Delay components must be non-negative.", map[string]any{
			"hours":   req.Hours,
			"minutes": req.Minutes,
			"seconds": req.Seconds,
		})
	}
	if req.Hours == 0 && req.Minutes == 0 && req.Seconds == 0 {
		return NewValidationError("Delay must be greater than zero.", nil)
	}
	if req.URL == "" {
		return NewValidationError("Field 'url' is required.", nil)
	}
	u, err := url.ParseRequestURI(req.URL)
	if err != nil || u.Host == "" {
		return NewValidationError("Field 'url' must be an absolute URL.", map[string]any{
			"url": req.URL,
		})
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewValidationError("Field 'url' must use the http or https scheme.", map[string]any{
			"scheme": u.Scheme,
		})
	}
	return nil
}

// FormatTime renders a timestamp in the canonical format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// NowFormatted returns the current time in the canonical format.
func NowFormatted() string {
	return FormatTime(time.Now())
}
