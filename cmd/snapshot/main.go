// Command snapshot copies one window of Organizze data into the SQLite
// database served by DATA_BACKEND=sqlite.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"insighthub/internal/cli"
	"insighthub/internal/core"
	"insighthub/internal/log"
	"insighthub/internal/source"
	"insighthub/internal/source/organizze"
	"insighthub/internal/storage"
)

func main() {
	preset := flag.String("preset", core.PresetLast6Months, "named window: current-month, last-3-months, last-6-months, current-year")
	start := flag.String("start", "", "window start, YYYY-MM-DD (overrides -preset)")
	end := flag.String("end", "", "window end, YYYY-MM-DD (overrides -preset)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentSnapshot)
	cfg := cli.LoadAndValidateConfig(logger)

	period, err := resolvePeriod(*preset, *start, *end, time.Now())
	if err != nil {
		logger.Error("Invalid snapshot window", log.FieldError, err)
		os.Exit(1)
	}

	client, err := organizze.NewClient(organizze.ClientConfig{
		Email:     cfg.OrganizzeEmail,
		Token:     cfg.OrganizzeToken,
		BaseURL:   cfg.OrganizzeBaseURL,
		UserAgent: cfg.OrganizzeUserAgent,
		Timeout:   cfg.FetchTimeout,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("Failed to initialize Organizze client", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, client, repo, period, logger); err != nil {
		logger.Error("Snapshot failed", log.FieldPeriod, period.Key(), log.FieldError, err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, src source.Source, dst *storage.SQLiteRepository, p core.Period, logger *log.Logger) error {
	if last, err := dst.LastSnapshotAt(ctx); err == nil && !last.IsZero() {
		logger.Info("Previous snapshot found", "saved_at", last.Format(time.RFC3339))
	}

	snap, err := source.Collect(ctx, src, p)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	if err := dst.SaveSnapshot(ctx, snap); err != nil {
		return err
	}

	logger.Info("Snapshot complete",
		log.FieldPeriod, p.Key(),
		log.FieldTxCount, len(snap.Transactions),
		"invoices", len(snap.Invoices),
		"schema_version", dst.SchemaVersion())
	return nil
}

func resolvePeriod(preset, start, end string, now time.Time) (core.Period, error) {
	if start == "" && end == "" {
		return core.PresetPeriod(preset, now)
	}
	s, err := core.ParseDate(start)
	if err != nil {
		return core.Period{}, fmt.Errorf("start: %w", err)
	}
	e, err := core.ParseDate(end)
	if err != nil {
		return core.Period{}, fmt.Errorf("end: %w", err)
	}
	return core.NewPeriod(s, e)
}
