package server

import (
	"os"
	"strconv"
	"time"
)

// Config holds server configuration from environment variables.
type Config struct {
	Port    string
	NatsURL string

	// Tick generator.
	PollInterval time.Duration
	CatchupBatch int64

	// Distributor.
	DistributorWorkers int
	TickMaxAttempts    int

	// Firer.
	FirerWorkers    int
	FireMaxAttempts int
	FireBackoff     time.Duration
	FireBackoffMax  time.Duration
	CallbackTimeout time.Duration

	// HTTP server.
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LoadConfig reads configuration from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		Port:    getEnv("FB_PORT", "8080"),
		NatsURL: getEnv("NATS_URL", "nats://localhost:4222"),

		PollInterval: getEnvDuration("FB_POLL_INTERVAL", time.Second),
		CatchupBatch: int64(getEnvInt("FB_CATCHUP_BATCH", 300)),

		DistributorWorkers: getEnvInt("FB_DISTRIBUTOR_WORKERS", 4),
		TickMaxAttempts:    getEnvInt("FB_TICK_MAX_ATTEMPTS", 5),

		FirerWorkers:    getEnvInt("FB_FIRER_WORKERS", 4),
		FireMaxAttempts: getEnvInt("FB_FIRE_MAX_ATTEMPTS", 5),
		FireBackoff:     getEnvDuration("FB_FIRE_BACKOFF", 2*time.Second),
		FireBackoffMax:  getEnvDuration("FB_FIRE_BACKOFF_MAX", time.Minute),
		CallbackTimeout: getEnvDuration("FB_CALLBACK_TIMEOUT", 10*time.Second),

		ReadTimeout:     getEnvDuration("FB_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getEnvDuration("FB_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     getEnvDuration("FB_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout: getEnvDuration("FB_SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
