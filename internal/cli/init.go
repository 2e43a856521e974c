// Package cli provides common CLI initialization utilities shared by
// cmd/insighthub, cmd/hub-worker and cmd/snapshot.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"insighthub/internal/amqp"
	"insighthub/internal/backend"
	"insighthub/internal/cache"
	"insighthub/internal/config"
	"insighthub/internal/log"
	"insighthub/internal/service"
)

// SetupLogger builds the process logger for component at the given level
// and installs it as the slog default. Unknown levels fall back to info.
func SetupLogger(level, component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = component
	if lvl, err := config.ParseLogLevel(level); err == nil {
		cfg.Level = lvl
	}
	if os.Getenv("LOG_FORMAT") == string(log.FormatJSON) {
		cfg.Format = log.FormatJSON
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend creates the configured data source or exits the process.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", log.FieldBackend, cfg.DataBackend, log.FieldError, err)
		os.Exit(1)
	}
	return res
}

// InitAMQP connects to the broker. It returns nil without error when
// AMQP_URL is unset.
func InitAMQP(logger *log.Logger, cfg *config.Config) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil, nil
	}
	return amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
}

// NewDashboard wires the dashboard service over res with a snapshot cache
// sized from cfg. The cache is registered with janitor when one is given.
func NewDashboard(cfg *config.Config, res *backend.BackendResult, publisher service.Publisher, janitor *cache.Janitor, logger *log.Logger) (*service.Dashboard, error) {
	snapshots := cache.NewLRUCache[*service.Data](cfg.CacheSize, cfg.CacheTTL)
	if janitor != nil {
		janitor.Register(snapshots)
	}
	var now func() time.Time
	if cfg.DataBackend == config.BackendDemo && cfg.DemoReferenceDate != "" {
		// pin the clock so the demo's current month is the one it was built for
		ref := cfg.ReferenceDate(time.Now())
		now = func() time.Time { return ref.Add(12 * time.Hour) }
	}
	return service.NewDashboard(service.Config{
		Source:        res.Source,
		Backend:       res.Type.String(),
		Cache:         snapshots,
		Publisher:     publisher,
		Thresholds:    cfg.Thresholds,
		DefaultLocale: cfg.Locale,
		FetchTimeout:  cfg.FetchTimeout,
		Logger:        logger,
		Now:           now,
	})
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has finished or timed out.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
