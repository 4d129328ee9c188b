// Package firer consumes fire messages, invokes the timer's callback,
// and records the pending→fired transition.
//
// The transition is conditional on the record revision observed before
// the callback, so racing deliveries of the same timer produce exactly
// one fired record. The callback itself is at-least-once: it runs
// before the transition, and a crash between the two replays it.
package firer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebell/firebell/internal/core"
	"github.com/firebell/firebell/internal/metrics"
	"github.com/firebell/firebell/internal/nats"
)

// Store loads timer records and performs the conditional transition.
type Store interface {
	LoadTimer(ctx context.Context, id string) (*core.Timer, uint64, error)
	MarkFired(ctx context.Context, timer *core.Timer, revision uint64) error
}

// Invoker delivers the callback.
type Invoker interface {
	Invoke(ctx context.Context, url string) error
}

// DeadLetters records fire deliveries that exhausted their retries.
type DeadLetters interface {
	WriteDeadLetter(ctx context.Context, entry *core.DeadLetter) error
}

// Firer handles one fire message at a time.
type Firer struct {
	store   Store
	invoker Invoker
	dead    DeadLetters
	events  core.EventPublisher
}

func New(store Store, invoker Invoker, dead DeadLetters, events core.EventPublisher) *Firer {
	return &Firer{store: store, invoker: invoker, dead: dead, events: events}
}

// Handle processes one fire message payload.
func (f *Firer) Handle(ctx context.Context, data []byte) error {
	msg, err := nats.DecodeFire(data)
	if err != nil {
		slog.Error("dropping malformed fire message", "error", err)
		return nil
	}

	timer, rev, err := f.store.LoadTimer(ctx, msg.TimerID)
	if err != nil {
		if core.IsNotFound(err) {
			slog.Warn("fire message for unknown timer", "timer_id", msg.TimerID)
			return nil
		}
		return fmt.Errorf("load timer %s: %w", msg.TimerID, err)
	}
	if timer.Status != core.StatusPending {
		// A duplicate delivery lost the race. No callback.
		slog.Debug("timer already fired", "timer_id", timer.ID)
		return nil
	}

	if err := f.invoker.Invoke(ctx, timer.CallbackURL); err != nil {
		metrics.CallbackFailures.Inc()
		return fmt.Errorf("callback for timer %s: %w", timer.ID, err)
	}

	if err := f.store.MarkFired(ctx, timer, rev); err != nil {
		if core.IsConflict(err) {
			// A concurrent delivery transitioned the record between our
			// load and our update. The timer is fired; the extra callback
			// already happened and cannot be taken back.
			slog.Warn("lost fired transition race", "timer_id", timer.ID)
			return nil
		}
		return fmt.Errorf("mark timer %s fired: %w", timer.ID, err)
	}

	metrics.TimersFired.Inc()
	f.publishEvent(&core.TimerEvent{
		Type:    core.EventTimerFired,
		TimerID: timer.ID,
		FireAt:  timer.FireAt,
		At:      core.NowFormatted(),
	})
	slog.Info("timer fired", "timer_id", timer.ID, "fire_at", timer.FireAt)
	return nil
}

// Exhausted records a dead letter for a fire message that failed its
// final delivery. The record stays pending so an operator retry goes
// through the normal transition.
func (f *Firer) Exhausted(ctx context.Context, data []byte, deliveries int, cause error) {
	msg, err := nats.DecodeFire(data)
	if err != nil {
		slog.Error("cannot dead-letter malformed fire message", "error", err)
		return
	}

	entry := &core.DeadLetter{
		TimerID:  msg.TimerID,
		Attempts: deliveries,
		LastError: func() string {
			if cause != nil {
				return cause.Error()
			}
			return ""
		}(),
		DeadAt: core.FormatTime(time.Now()),
	}
	if timer, _, err := f.store.LoadTimer(ctx, msg.TimerID); err == nil {
		entry.CallbackURL = timer.CallbackURL
	}

	if err := f.dead.WriteDeadLetter(ctx, entry); err != nil {
		slog.Error("failed to record dead letter", "timer_id", msg.TimerID, "error", err)
		return
	}

	metrics.TimersDeadLettered.Inc()
	f.publishEvent(&core.TimerEvent{
		Type:    core.EventTimerDeadLettered,
		TimerID: msg.TimerID,
		At:      core.NowFormatted(),
	})
	slog.Error("timer dead-lettered", "timer_id", msg.TimerID, "attempts", deliveries, "error", cause)
}

func (f *Firer) publishEvent(event *core.TimerEvent) {
	if f.events == nil {
		return
	}
	if err := f.events.PublishTimerEvent(event); err != nil {
		slog.Warn("failed to publish timer event", "type", event.Type, "timer_id", event.TimerID, "error", err)
	}
}
