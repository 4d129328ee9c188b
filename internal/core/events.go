package core

// Timer lifecycle event types.
const (
	EventTimerCreated      = "timer.created"
	EventTimerFired        = "timer.fired"
	EventTimerDeadLettered = "timer.dead_lettered"
)

// TimerEvent is a lifecycle notification published for observers. Events
// are advisory; correctness never depends on their delivery.
type TimerEvent struct {
	Type    string `json:"type"`
	TimerID string `json:"timer_id"`
	FireAt  int64  `json:"fire_at,omitempty"`
	At      string `json:"at"`
}

// EventPublisher publishes timer lifecycle events.
type EventPublisher interface {
	PublishTimerEvent(event *TimerEvent) error
}
