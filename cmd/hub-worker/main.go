package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"insighthub/internal/amqp"
	"insighthub/internal/cache"
	"insighthub/internal/cli"
	"insighthub/internal/core"
	"insighthub/internal/log"
	"insighthub/internal/worker"
)

func main() {
	enqueue := flag.Bool("enqueue", false, "publish one refresh request and exit")
	start := flag.String("start", "", "refresh window start, YYYY-MM-DD (with -enqueue)")
	end := flag.String("end", "", "refresh window end, YYYY-MM-DD (with -enqueue)")
	locale := flag.String("locale", "", "report locale (with -enqueue)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	if *enqueue {
		if err := publishRequest(amqpClient, *start, *end, *locale); err != nil {
			logger.Error("Failed to enqueue refresh request", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Refresh request enqueued", "start", *start, "end", *end)
		return
	}

	res := cli.InitBackend(context.Background(), logger, cfg)
	defer res.Close()

	janitor := cache.NewJanitor(logger)
	dashboard, err := cli.NewDashboard(cfg, res, amqpClient, janitor, logger)
	if err != nil {
		logger.Error("Failed to create dashboard service", log.FieldError, err)
		os.Exit(1)
	}
	refresher := worker.NewRefreshWorker(dashboard, cfg.RefreshInterval, cfg.Locale, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := refresher.Stop(ctx); err != nil {
			logger.Error("Refresh worker stop error", log.FieldError, err)
		}
		janitor.Wait()
	})
	janitor.Start(ctx, cfg.CacheTTL)

	// On startup, warm the current month so the first event goes out early.
	if err := refresher.RefreshCurrent(ctx); err != nil {
		logger.Error("Startup refresh failed", log.FieldError, err)
	}

	if cfg.RefreshInterval > 0 {
		if err := refresher.Start(ctx); err != nil {
			logger.Error("Failed to start periodic refresh", log.FieldError, err)
		}
	} else {
		logger.Info("Periodic refresh disabled - REFRESH_INTERVAL is 0")
	}

	go func() {
		err := amqpClient.ConsumeRefreshRequests(ctx, refresher.HandleRefreshRequest)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
	}()

	logger.Info("Worker started",
		log.FieldBackend, res.Type.String(),
		"interval", cfg.RefreshInterval.String())

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}

// publishRequest sends a refresh request for start..end, or for the current
// month when both are empty.
func publishRequest(client *amqp.Client, start, end, locale string) error {
	var period *core.Period
	if start != "" || end != "" {
		s, err := core.ParseDate(start)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		e, err := core.ParseDate(end)
		if err != nil {
			return fmt.Errorf("end: %w", err)
		}
		p, err := core.NewPeriod(s, e)
		if err != nil {
			return err
		}
		period = &p
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return client.PublishRefreshRequest(ctx, amqp.NewRefreshRequest(period, locale))
}
