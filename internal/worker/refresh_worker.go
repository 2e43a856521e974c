package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"insighthub/internal/amqp"
	"insighthub/internal/core"
	"insighthub/internal/log"
	"insighthub/internal/service"
)

// Refresher rebuilds the report of a period, bypassing the cache.
type Refresher interface {
	Refresh(ctx context.Context, p core.Period, locale string) (*service.Report, error)
}

// RefreshWorker recomputes reports on request and on a fixed interval.
type RefreshWorker struct {
	dashboard  Refresher
	interval   time.Duration
	locale     string
	logger     *log.Logger
	structured *log.StructuredLogger
	now        func() time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRefreshWorker creates a worker. A zero interval disables the ticker.
func NewRefreshWorker(dashboard Refresher, interval time.Duration, locale string, logger *log.Logger) *RefreshWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentWorker)
	return &RefreshWorker{
		dashboard:  dashboard,
		interval:   interval,
		locale:     locale,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		now:        time.Now,
	}
}

// HandleRefreshRequest processes a single refresh request from AMQP. A
// request naming an invalid window is logged and dropped; a failed
// refresh is returned so the message can be retried.
func (w *RefreshWorker) HandleRefreshRequest(ctx context.Context, req *amqp.RefreshRequest) error {
	p, err := req.Period(w.now())
	if err != nil {
		w.logger.WarnContext(ctx, "Dropping refresh request with invalid period",
			log.FieldMessageID, req.MessageID,
			log.FieldError, err)
		return nil
	}

	locale := req.Locale
	if locale == "" {
		locale = w.locale
	}

	w.logger.InfoContext(ctx, "Processing refresh request",
		log.FieldMessageID, req.MessageID,
		log.FieldPeriod, p.Key(),
		log.FieldLocale, locale)

	r, err := w.dashboard.Refresh(ctx, p, locale)
	w.structured.LogRefresh(ctx, req.MessageID, p.Key(), insightCount(r), err)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", p.Key(), err)
	}
	return nil
}

// RefreshCurrent recomputes the report of the current month. The outcome
// is logged either way.
func (w *RefreshWorker) RefreshCurrent(ctx context.Context) error {
	p := core.MonthPeriod(core.DateOf(w.now()))
	r, err := w.dashboard.Refresh(ctx, p, w.locale)
	w.structured.LogRefresh(ctx, "ticker", p.Key(), insightCount(r), err)
	if err != nil {
		return fmt.Errorf("refresh current month: %w", err)
	}
	return nil
}

func insightCount(r *service.Report) int {
	if r == nil {
		return 0
	}
	return len(r.Insights)
}

// Start begins the periodic refresh loop. Returns an error if already running.
func (w *RefreshWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return errors.New("refresh interval is not set")
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("refresh worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	w.logger.InfoContext(ctx, "Refresh worker started", "interval", w.interval)
	return nil
}

// Stop signals the loop and waits for it to finish or for ctx to end.
func (w *RefreshWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	select {
	case <-done:
		w.logger.InfoContext(ctx, "Refresh worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Refresh worker stop timed out")
		return ctx.Err()
	}
}

func (w *RefreshWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *RefreshWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// failures are logged by RefreshCurrent; the next tick retries
			_ = w.RefreshCurrent(ctx)
		}
	}
}
