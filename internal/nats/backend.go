package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/firebell/firebell/internal/core"
	"github.com/firebell/firebell/internal/kv"
	"github.com/firebell/firebell/internal/metrics"
)

// Backend implements the durable record store, watermark, and queue
// operations on NATS JetStream. It satisfies core.Backend for the API
// plus the narrower store interfaces declared by the pipeline workers.
type Backend struct {
	nc *nats.Conn
	js jetstream.JetStream

	timers    *kv.TimerStore
	watermark *kv.WatermarkStore
	dead      *kv.Store

	events core.EventPublisher

	startTime time.Time
}

// New connects to NATS and sets up JetStream resources.
func New(natsURL string) (*Backend, error) {
	nc, err := nats.Connect(natsURL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := SetupJetStream(ctx, js); err != nil {
		nc.Close()
		return nil, fmt.Errorf("setting up JetStream: %w", err)
	}

	openKV := func(name string) (jetstream.KeyValue, error) {
		bucket, err := js.KeyValue(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("opening KV bucket %s: %w", name, err)
		}
		return bucket, nil
	}

	timersKV, err := openKV(BucketTimers)
	if err != nil {
		nc.Close()
		return nil, err
	}
	scheduleKV, err := openKV(BucketSchedule)
	if err != nil {
		nc.Close()
		return nil, err
	}
	watermarkKV, err := openKV(BucketWatermark)
	if err != nil {
		nc.Close()
		return nil, err
	}
	deadKV, err := openKV(BucketDead)
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &Backend{
		nc:        nc,
		js:        js,
		timers:    kv.NewTimerStore(timersKV, scheduleKV),
		watermark: kv.NewWatermarkStore(watermarkKV),
		dead:      kv.NewStore(deadKV),
		startTime: time.Now(),
	}, nil
}

// Conn returns the underlying NATS connection for auxiliary services
// (e.g., the event broker).
func (b *Backend) Conn() *nats.Conn {
	return b.nc
}

// JetStream returns the JetStream context for consumer setup.
func (b *Backend) JetStream() jetstream.JetStream {
	return b.js
}

// SetEventPublisher wires the lifecycle event broker. Events are
// best-effort; a nil publisher disables them.
func (b *Backend) SetEventPublisher(p core.EventPublisher) {
	b.events = p
}

func (b *Backend) Close() error {
	b.nc.Close()
	return nil
}

// CreateTimer validates the request, persists a pending record, and
// indexes it under its fire_at second.
func (b *Backend) CreateTimer(ctx context.Context, req *core.CreateTimerRequest) (*core.Timer, error) {
	if err := core.ValidateCreateTimerRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	timer := &core.Timer{
		ID:          core.NewUUIDv7(),
		CallbackURL: req.URL,
		FireAt:      core.ComputeFireAt(now, req.Hours, req.Minutes, req.Seconds),
		Status:      core.StatusPending,
		CreatedAt:   core.FormatTime(now),
	}

	if err := b.timers.Create(ctx, timer); err != nil {
		return nil, core.NewUnavailableError(fmt.Sprintf("storing timer: %v", err))
	}

	metrics.TimersCreated.Inc()
	b.publishEvent(&core.TimerEvent{
		Type:    core.EventTimerCreated,
		TimerID: timer.ID,
		FireAt:  timer.FireAt,
		At:      core.FormatTime(now),
	})

	return timer, nil
}

// GetTimer returns the record for id.
func (b *Backend) GetTimer(ctx context.Context, id string) (*core.Timer, error) {
	timer, _, err := b.timers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return timer, nil
}

// LoadTimer returns a record plus its revision for a conditional update.
func (b *Backend) LoadTimer(ctx context.Context, id string) (*core.Timer, uint64, error) {
	return b.timers.Get(ctx, id)
}

// MarkFired performs the conditional pending→fired transition.
func (b *Backend) MarkFired(ctx context.Context, timer *core.Timer, revision uint64) error {
	return b.timers.MarkFired(ctx, timer, revision)
}

// DueTimerIDs returns the ids scheduled for one second.
func (b *Backend) DueTimerIDs(ctx context.Context, second int64) ([]string, error) {
	return b.timers.DueTimerIDs(ctx, second)
}

// PublishTick publishes a tick message.
func (b *Backend) PublishTick(ctx context.Context, second int64) error {
	return PublishTick(ctx, b.js, second)
}

// PublishFire publishes a fire message.
func (b *Backend) PublishFire(ctx context.Context, timerID string) error {
	return PublishFire(ctx, b.js, timerID)
}

// InitWatermark seeds the watermark on first deployment.
func (b *Backend) InitWatermark(ctx context.Context, second int64) error {
	return b.watermark.Init(ctx, second)
}

// LoadWatermark returns the watermark second and revision.
func (b *Backend) LoadWatermark(ctx context.Context) (int64, uint64, error) {
	return b.watermark.Load(ctx)
}

// AdvanceWatermark conditionally moves the watermark forward.
func (b *Backend) AdvanceWatermark(ctx context.Context, second int64, revision uint64) (uint64, error) {
	return b.watermark.Advance(ctx, second, revision)
}

// Health returns the health status, measuring NATS round-trip time with
// a KV probe.
func (b *Backend) Health(ctx context.Context) (*core.HealthResponse, error) {
	resp := &core.HealthResponse{
		Version:       core.Version,
		UptimeSeconds: int64(time.Since(b.startTime).Seconds()),
	}

	status := b.nc.Status()
	if status != nats.CONNECTED {
		resp.Status = "degraded"
		resp.Backend = core.BackendHealth{
			Type:   "nats",
			Status: "disconnected",
			Error:  fmt.Sprintf("NATS status: %v", status),
		}
		return resp, fmt.Errorf("NATS not connected")
	}

	start := time.Now()
	b.dead.Exists(ctx, "_health_check")
	latency := time.Since(start).Milliseconds()

	resp.Status = "ok"
	resp.Backend = core.BackendHealth{
		Type:      "nats",
		Status:    "connected",
		LatencyMs: latency,
	}
	return resp, nil
}

func (b *Backend) publishEvent(event *core.TimerEvent) {
	if b.events == nil {
		return
	}
	if err := b.events.PublishTimerEvent(event); err != nil {
		slog.Warn("failed to publish timer event", "type", event.Type, "timer_id", event.TimerID, "error", err)
	}
}
