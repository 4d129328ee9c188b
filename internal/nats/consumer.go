package nats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/firebell/firebell/internal/core"
)

const (
	fetchBatchSize = 16
	fetchMaxWait   = 2 * time.Second
)

// Fetcher is the subset of jetstream.Consumer the runner needs.
type Fetcher interface {
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
}

// HandleFunc processes one message payload. A nil return acknowledges
// the message; an error schedules redelivery with backoff.
type HandleFunc func(ctx context.Context, data []byte) error

// ExhaustFunc runs when a message fails on its final delivery, before
// the message is terminated.
type ExhaustFunc func(ctx context.Context, data []byte, deliveries int, err error)

// Runner drains a durable pull consumer with a bounded worker pool.
// Each worker performs a blocking fetch with a bounded wait, invokes the
// handler per message, and acks, naks with delay, or terminates based on
// the outcome.
type Runner struct {
	name        string
	consumer    Fetcher
	workers     int
	maxDeliver  int
	backoffBase time.Duration
	backoffMax  time.Duration
	handle      HandleFunc
	exhausted   ExhaustFunc
}

// NewRunner creates a Runner. maxDeliver must match the consumer's
// MaxDeliver so the exhaustion callback fires on the true final attempt.
func NewRunner(name string, consumer Fetcher, workers, maxDeliver int, backoffBase, backoffMax time.Duration, handle HandleFunc, exhausted ExhaustFunc) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		name:        name,
		consumer:    consumer,
		workers:     workers,
		maxDeliver:  maxDeliver,
		backoffBase: backoffBase,
		backoffMax:  backoffMax,
		handle:      handle,
		exhausted:   exhausted,
	}
}

// Run blocks until ctx is cancelled and all workers have drained.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(ctx)
		}()
	}
	wg.Wait()
}

func (r *Runner) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		batch, err := r.consumer.Fetch(fetchBatchSize, jetstream.FetchMaxWait(fetchMaxWait))
		if err != nil {
			slog.Warn("fetch failed", "consumer", r.name, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		for msg := range batch.Messages() {
			r.process(ctx, msg)
		}
		if err := batch.Error(); err != nil {
			slog.Warn("fetch batch error", "consumer", r.name, "error", err)
		}
	}
}

func (r *Runner) process(ctx context.Context, msg jetstream.Msg) {
	deliveries := 1
	if meta, err := msg.Metadata(); err == nil {
		deliveries = int(meta.NumDelivered)
	}

	err := r.handle(ctx, msg.Data())
	if err == nil {
		if aErr := msg.Ack(); aErr != nil {
			slog.Warn("ack failed", "consumer", r.name, "error", aErr)
		}
		return
	}

	if deliveries >= r.maxDeliver {
		slog.Error("message exhausted its delivery budget",
			"consumer", r.name,
			"deliveries", deliveries,
			"error", err,
		)
		if r.exhausted != nil {
			r.exhausted(ctx, msg.Data(), deliveries, err)
		}
		if tErr := msg.Term(); tErr != nil {
			slog.Warn("term failed", "consumer", r.name, "error", tErr)
		}
		return
	}

	delay := core.Backoff(r.backoffBase, r.backoffMax, deliveries)
	slog.Warn("message handling failed, scheduling redelivery",
		"consumer", r.name,
		"deliveries", deliveries,
		"delay", delay,
		"error", err,
	)
	if nErr := msg.NakWithDelay(delay); nErr != nil {
		slog.Warn("nak failed", "consumer", r.name, "error", nErr)
	}
}
