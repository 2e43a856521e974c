package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"insighthub/internal/cache"
	"insighthub/internal/cli"
	apphttp "insighthub/internal/http"
	"insighthub/internal/log"
	"insighthub/internal/service"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitBackend(context.Background(), logger, cfg)
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	}()

	// Insight events are optional; the API works without a broker.
	var publisher service.Publisher
	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		logger.Warn("AMQP unavailable, insight events disabled", log.FieldError, err)
	} else if amqpClient != nil {
		publisher = amqpClient
		defer amqpClient.Close()
	}

	janitor := cache.NewJanitor(logger)
	dashboard, err := cli.NewDashboard(cfg, res, publisher, janitor, logger)
	if err != nil {
		logger.Error("Failed to create dashboard service", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, dashboard, logger, apphttp.Options{
		RefreshPerMinute: 6,
		WriteTimeout:     cfg.FetchTimeout + 15*time.Second,
	})
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})
	janitor.Start(ctx, cfg.CacheTTL)

	logger.Info("Starting HTTP server",
		"addr", srv.Addr,
		log.FieldBackend, res.Type.String(),
		log.FieldLocale, cfg.Locale)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed to start", log.FieldError, err, "addr", srv.Addr)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	janitor.Wait()
	logger.Info("Server stopped")
}
