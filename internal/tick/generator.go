// Package tick advances the durable watermark and publishes one tick
// message per elapsed epoch second.
//
// The generator does not try to fire once per wall-clock second in real
// time; it only guarantees that every second between the watermark and
// "now" is accounted for exactly once in its published stream. After an
// outage the catch-up loop republishes every skipped second in bounded
// batches rather than jumping straight to now.
package tick

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/firebell/firebell/internal/core"
	"github.com/firebell/firebell/internal/kv"
	"github.com/firebell/firebell/internal/metrics"
)

const (
	publishAttempts  = 3
	publishRetryBase = 250 * time.Millisecond
	publishRetryMax  = 2 * time.Second
)

// WatermarkStore is the durable watermark accessed through
// compare-and-set. Any number of generator instances can run safely;
// losers of the conditional advance drop their cycle.
type WatermarkStore interface {
	LoadWatermark(ctx context.Context) (second int64, revision uint64, err error)
	AdvanceWatermark(ctx context.Context, second int64, revision uint64) (uint64, error)
}

// Publisher publishes tick messages to the distribution queue.
type Publisher interface {
	PublishTick(ctx context.Context, second int64) error
}

// Config holds the generator's deployment parameters.
type Config struct {
	// PollInterval is the fixed wait between cycles.
	PollInterval time.Duration
	// CatchupBatch bounds how many seconds one cycle publishes, so a
	// long outage is worked off across cycles instead of in one.
	CatchupBatch int64
}

// Generator is the long-running tick worker.
type Generator struct {
	store    WatermarkStore
	pub      Publisher
	interval time.Duration
	batch    int64
	now      func() time.Time

	started  bool
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a Generator.
func New(store WatermarkStore, pub Publisher, cfg Config) *Generator {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	batch := cfg.CatchupBatch
	if batch <= 0 {
		batch = 300
	}
	return &Generator{
		store:    store,
		pub:      pub,
		interval: interval,
		batch:    batch,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the poll loop.
func (g *Generator) Start() {
	if g.started {
		return
	}
	g.started = true
	go g.run()
}

// Stop halts the loop and waits for the current cycle to finish. Safe
// to call more than once.
func (g *Generator) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
	if g.started {
		<-g.done
	}
}

func (g *Generator) run() {
	defer close(g.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-g.stop
		cancel()
	}()

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		if err := g.cycle(ctx); err != nil && ctx.Err() == nil {
			slog.Error("tick cycle failed", "error", err)
		}
		select {
		case <-g.stop:
			return
		case <-ticker.C:
		}
	}
}

// cycle publishes ticks for the elapsed range and conditionally
// advances the watermark. A crash mid-range leaves the watermark
// behind; the next cycle republishes the gap, so no second is lost.
func (g *Generator) cycle(ctx context.Context) error {
	w, rev, err := g.store.LoadWatermark(ctx)
	if err != nil {
		return fmt.Errorf("load watermark: %w", err)
	}

	now := g.now().Unix()
	metrics.WatermarkLag.Set(float64(now - w))
	if now <= w {
		// Caught up, or clock skew put us behind the watermark.
		return nil
	}

	hi := now
	if hi-w > g.batch {
		hi = w + g.batch
	}

	for s := w + 1; s <= hi; s++ {
		if err := g.publish(ctx, s); err != nil {
			// Watermark untouched: the whole range is republished next
			// cycle. Duplicate ticks are idempotent downstream.
			return err
		}
	}

	if _, err := g.store.AdvanceWatermark(ctx, hi, rev); err != nil {
		if kv.IsCASConflict(err) {
			slog.Debug("watermark advanced by another instance", "second", hi)
			return nil
		}
		return fmt.Errorf("advance watermark: %w", err)
	}

	metrics.WatermarkLag.Set(float64(now - hi))
	if hi < now {
		slog.Info("catching up", "published_through", hi, "behind_seconds", now-hi)
	}
	return nil
}

func (g *Generator) publish(ctx context.Context, second int64) error {
	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		if err = g.pub.PublishTick(ctx, second); err == nil {
			metrics.TicksPublished.Inc()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(core.Backoff(publishRetryBase, publishRetryMax, attempt)):
		}
	}
	return fmt.Errorf("publish tick %d: %w", second, err)
}
