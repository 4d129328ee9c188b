package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/firebell/firebell/internal/callback"
	"github.com/firebell/firebell/internal/core"
	"github.com/firebell/firebell/internal/distributor"
	"github.com/firebell/firebell/internal/firer"
	"github.com/firebell/firebell/internal/metrics"
	natsbackend "github.com/firebell/firebell/internal/nats"
	"github.com/firebell/firebell/internal/server"
	"github.com/firebell/firebell/internal/tick"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := server.LoadConfig()

	// Connect to NATS and set up streams and buckets
	backend, err := natsbackend.New(cfg.NatsURL)
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	slog.Info("connected to NATS", "url", cfg.NatsURL)

	// Initialize Prometheus server info metric
	metrics.Init(core.Version, "nats")

	// Real-time lifecycle event broker
	broker := natsbackend.NewEventBroker(backend.Conn())
	defer broker.Close()
	backend.SetEventPublisher(broker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seed the watermark on first deployment; a no-op when it exists.
	if err := backend.InitWatermark(ctx, time.Now().Unix()); err != nil {
		slog.Error("failed to initialize watermark", "error", err)
		os.Exit(1)
	}

	// Durable pull consumers for the two pipeline queues
	tickConsumer, err := natsbackend.EnsureTickConsumer(ctx, backend.JetStream(), cfg.TickMaxAttempts)
	if err != nil {
		slog.Error("failed to create tick consumer", "error", err)
		os.Exit(1)
	}
	fireConsumer, err := natsbackend.EnsureFireConsumer(ctx, backend.JetStream(), cfg.FireMaxAttempts)
	if err != nil {
		slog.Error("failed to create fire consumer", "error", err)
		os.Exit(1)
	}

	dist := distributor.New(backend, backend)
	distRunner := natsbackend.NewRunner("distributor", tickConsumer,
		cfg.DistributorWorkers, cfg.TickMaxAttempts,
		cfg.FireBackoff, cfg.FireBackoffMax,
		dist.Handle, dist.Exhausted)

	fire := firer.New(backend, callback.New(cfg.CallbackTimeout), backend, broker)
	fireRunner := natsbackend.NewRunner("firer", fireConsumer,
		cfg.FirerWorkers, cfg.FireMaxAttempts,
		cfg.FireBackoff, cfg.FireBackoffMax,
		fire.Handle, fire.Exhausted)

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		distRunner.Run(ctx)
	}()
	go func() {
		defer workers.Done()
		fireRunner.Run(ctx)
	}()

	// Tick generator
	gen := tick.New(backend, backend, tick.Config{
		PollInterval: cfg.PollInterval,
		CatchupBatch: cfg.CatchupBatch,
	})
	gen.Start()

	// HTTP server
	router := server.NewRouter(backend)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		slog.Info("firebell server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	gen.Stop()
	cancel()
	workers.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
