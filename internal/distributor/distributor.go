// Package distributor consumes tick messages and fans out one fire
// message per timer scheduled at that second.
package distributor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebell/firebell/internal/core"
	"github.com/firebell/firebell/internal/metrics"
	"github.com/firebell/firebell/internal/nats"
)

// Store looks up the timers due at a second.
type Store interface {
	DueTimerIDs(ctx context.Context, second int64) ([]string, error)
	LoadTimer(ctx context.Context, id string) (*core.Timer, uint64, error)
}

// Publisher publishes fire messages to the fire queue.
type Publisher interface {
	PublishFire(ctx context.Context, timerID string) error
}

// Distributor handles one tick at a time. Tick redelivery can fan out
// duplicate fire messages; the firer's conditional transition absorbs
// them.
type Distributor struct {
	store Store
	pub   Publisher
}

func New(store Store, pub Publisher) *Distributor {
	return &Distributor{store: store, pub: pub}
}

// Handle processes one tick message payload.
func (d *Distributor) Handle(ctx context.Context, data []byte) error {
	tick, err := nats.DecodeTick(data)
	if err != nil {
		// Malformed ticks never become valid; drop rather than retry.
		slog.Error("dropping malformed tick message", "error", err)
		return nil
	}

	ids, err := d.store.DueTimerIDs(ctx, tick.Second)
	if err != nil {
		return fmt.Errorf("look up timers due at %d: %w", tick.Second, err)
	}
	if len(ids) == 0 {
		return nil
	}

	for _, id := range ids {
		timer, _, err := d.store.LoadTimer(ctx, id)
		if err != nil {
			if core.IsNotFound(err) {
				// Indexed id without a record: nothing to fire.
				slog.Warn("scheduled timer has no record", "timer_id", id, "second", tick.Second)
				continue
			}
			return fmt.Errorf("load timer %s: %w", id, err)
		}
		if timer.Status != core.StatusPending {
			// Already fired on a previous delivery of this tick.
			continue
		}

		if err := d.pub.PublishFire(ctx, id); err != nil {
			// Redelivering the tick republishes for every id, including
			// ones that succeeded above. That duplication is safe.
			return fmt.Errorf("publish fire for timer %s: %w", id, err)
		}
		metrics.FireMessagesPublished.Inc()
	}

	slog.Debug("distributed tick", "second", tick.Second, "timers", len(ids))
	return nil
}

// Exhausted runs when a tick fails its final delivery. A dropped tick
// means every timer at that second silently never fires, so this is
// the loudest log in the pipeline.
func (d *Distributor) Exhausted(ctx context.Context, data []byte, deliveries int, err error) {
	second := int64(-1)
	if tick, dErr := nats.DecodeTick(data); dErr == nil {
		second = tick.Second
	}
	slog.Error("tick abandoned after exhausting retries; timers at this second will not fire",
		"second", second,
		"deliveries", deliveries,
		"error", err,
	)
}
