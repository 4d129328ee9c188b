package nats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/firebell/firebell/internal/core"
)

const (
	eventTimerPrefix = SubjectPrefix + ".events.timer."
	eventAllSubject  = SubjectPrefix + ".events.all"
)

func eventTimerSubject(timerID string) string { return eventTimerPrefix + timerID }

// EventBroker publishes and subscribes to timer lifecycle events using
// NATS core pub/sub. Events are advisory: delivery is best-effort and
// correctness never depends on them.
type EventBroker struct {
	nc   *nats.Conn
	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewEventBroker creates an EventBroker over the given NATS connection.
func NewEventBroker(nc *nats.Conn) *EventBroker {
	return &EventBroker{nc: nc}
}

// PublishTimerEvent publishes an event to the timer-specific and global
// subjects.
func (b *EventBroker) PublishTimerEvent(event *core.TimerEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.nc.Publish(eventTimerSubject(event.TimerID), data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	if err := b.nc.Publish(eventAllSubject, data); err != nil {
		slog.Warn("failed to publish global event", "error", err)
	}
	return nil
}

// SubscribeTimer subscribes to events for a specific timer.
func (b *EventBroker) SubscribeTimer(timerID string) (<-chan *core.TimerEvent, func(), error) {
	return b.subscribe(eventTimerSubject(timerID))
}

// SubscribeAll subscribes to all timer events.
func (b *EventBroker) SubscribeAll() (<-chan *core.TimerEvent, func(), error) {
	return b.subscribe(eventAllSubject)
}

func (b *EventBroker) subscribe(subject string) (<-chan *core.TimerEvent, func(), error) {
	ch := make(chan *core.TimerEvent, 64)

	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		var event core.TimerEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Error("failed to unmarshal event", "error", err)
			return
		}
		select {
		case ch <- &event:
		default:
			slog.Warn("dropping event, subscriber channel full", "subject", subject)
		}
	})
	if err != nil {
		close(ch)
		return nil, nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	unsubscribe := func() {
		_ = sub.Unsubscribe()
		close(ch)
	}

	return ch, unsubscribe, nil
}

// Close unsubscribes all subscriptions.
func (b *EventBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil
	return nil
}
