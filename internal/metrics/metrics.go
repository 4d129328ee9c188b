package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	serverInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "firebell_server_info",
		Help: "Server version and backend type.",
	}, []string{"version", "backend"})

	// TicksPublished counts tick messages published to the distribution
	// queue, including catch-up republication.
	TicksPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firebell_ticks_published_total",
		Help: "Tick messages published to the distribution queue.",
	})

	// TimersCreated counts successfully registered timers.
	TimersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firebell_timers_created_total",
		Help: "Timers registered via the API.",
	})

	// TimersFired counts successful pending→fired transitions.
	TimersFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firebell_timers_fired_total",
		Help: "Timers transitioned to fired.",
	})

	// TimersDeadLettered counts fire deliveries routed to the
	// dead-letter path after exhausting their retry budget.
	TimersDeadLettered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firebell_timers_dead_lettered_total",
		Help: "Fire deliveries dead-lettered after exhausting retries.",
	})

	// CallbackFailures counts failed callback invocations (before any
	// redelivery decision).
	CallbackFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firebell_callback_failures_total",
		Help: "Callback invocations that failed.",
	})

	// FireMessagesPublished counts fire messages emitted by the
	// distributor, duplicates included.
	FireMessagesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firebell_fire_messages_published_total",
		Help: "Fire messages published to the fire queue.",
	})

	// WatermarkLag is the distance in seconds between wall-clock time
	// and the watermark after the last generator cycle.
	WatermarkLag = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firebell_watermark_lag_seconds",
		Help: "Seconds between now and the last fully ticked second.",
	})
)

// Init records static server info. Call once at startup.
func Init(version, backend string) {
	serverInfo.WithLabelValues(version, backend).Set(1)
}
