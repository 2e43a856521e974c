package cli

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"insighthub/internal/cache"
	"insighthub/internal/config"
	"insighthub/internal/core"
	"insighthub/internal/log"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		level     string
		wantDebug bool
	}{
		{"debug", true},
		{"info", false},
		{"nonsense", false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := SetupLogger(tt.level, log.ComponentWorker)
			if logger.Component() != log.ComponentWorker {
				t.Errorf("component = %q", logger.Component())
			}
			if got := slog.Default().Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestInitAMQPDisabled(t *testing.T) {
	client, err := InitAMQP(log.Discard(), &config.Config{})
	if err != nil || client != nil {
		t.Fatalf("InitAMQP without URL = %v, %v", client, err)
	}
}

func TestNewDashboardDemo(t *testing.T) {
	cfg := &config.Config{
		DataBackend:       config.BackendDemo,
		DemoReferenceDate: "2024-12-20",
		CacheSize:         4,
		CacheTTL:          time.Minute,
		FetchTimeout:      time.Second,
		Locale:            "pt-BR",
	}
	ctx := context.Background()
	res := InitBackend(ctx, log.Discard(), cfg)
	t.Cleanup(func() { _ = res.Close() })

	janitor := cache.NewJanitor(log.Discard())
	d, err := NewDashboard(cfg, res, nil, janitor, log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Now().Format("2006-01-02"); got != "2024-12-20" {
		t.Errorf("demo clock = %s", got)
	}
	rep, err := d.Report(ctx, core.MonthPeriod(core.DateOf(d.Now())), "")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Locale != "pt-BR" || len(rep.Transactions) == 0 {
		t.Errorf("report locale=%s transactions=%d", rep.Locale, len(rep.Transactions))
	}
	// the loaded snapshot is in the registered cache and still fresh
	if n := janitor.Sweep(); n != 0 {
		t.Errorf("sweep removed %d fresh entries", n)
	}
}
