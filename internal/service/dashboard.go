// Package service orchestrates the data sources, the snapshot cache and the
// analysis engine behind the dashboard API and the refresh worker.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"insighthub/internal/amqp"
	"insighthub/internal/analysis"
	"insighthub/internal/cache"
	"insighthub/internal/core"
	"insighthub/internal/log"
	"insighthub/internal/source"
)

// DefaultFetchTimeout bounds each individual source call.
const DefaultFetchTimeout = 15 * time.Second

// Publisher announces freshly generated reports.
type Publisher interface {
	PublishInsightsGenerated(ctx context.Context, evt *amqp.InsightsGeneratedEvent) error
}

// Data is everything fetched for one period. Transactions and
// PreviousTransactions are already restricted to active accounts and cards.
type Data struct {
	Period               core.Period
	Previous             core.Period
	Accounts             []core.Account
	Categories           []core.Category
	CreditCards          []core.CreditCard
	Transactions         []core.Transaction
	PreviousTransactions []core.Transaction
	LoadedAt             time.Time
}

// Report is the full dashboard payload for one period.
type Report struct {
	Period            core.Period              `json:"period"`
	PreviousPeriod    core.Period              `json:"previous_period"`
	Locale            string                   `json:"locale"`
	Summary           core.FinancialSummary    `json:"summary"`
	Insights          []analysis.Insight       `json:"insights"`
	KPIs              []analysis.KPI           `json:"kpis"`
	Trends            []analysis.TrendAnalysis `json:"trends"`
	Monthly           []analysis.TrendAnalysis `json:"monthly"`
	ExpenseCategories []analysis.CategoryShare `json:"expense_categories"`
	RevenueCategories []analysis.CategoryShare `json:"revenue_categories"`
	CategoryTrends    []analysis.CategoryTrend `json:"category_trends"`
	Accounts          []core.Account           `json:"accounts"`
	CreditCards       []core.CreditCard        `json:"credit_cards"`
	Transactions      []core.Transaction       `json:"transactions"`
	GeneratedAt       time.Time                `json:"generated_at"`
	CacheHit          bool                     `json:"cache_hit"`
}

// Config wires a Dashboard.
type Config struct {
	Source        source.Source
	Backend       string
	Cache         cache.Cache[*Data]
	Publisher     Publisher
	Thresholds    analysis.Thresholds
	DefaultLocale string
	FetchTimeout  time.Duration
	Logger        *log.Logger
	Now           func() time.Time
}

// Dashboard loads period snapshots and turns them into reports.
type Dashboard struct {
	src          source.Source
	backend      string
	cache        cache.Cache[*Data]
	publisher    Publisher
	thresholds   analysis.Thresholds
	locale       string
	fetchTimeout time.Duration
	logger       *log.Logger
	structured   *log.StructuredLogger
	now          func() time.Time
}

func NewDashboard(cfg Config) (*Dashboard, error) {
	if cfg.Source == nil {
		return nil, errors.New("dashboard requires a data source")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentService)

	d := &Dashboard{
		src:          cfg.Source,
		backend:      cfg.Backend,
		cache:        cfg.Cache,
		publisher:    cfg.Publisher,
		thresholds:   cfg.Thresholds,
		locale:       cfg.DefaultLocale,
		fetchTimeout: cfg.FetchTimeout,
		logger:       logger,
		structured:   log.NewStructuredLogger(logger),
		now:          cfg.Now,
	}
	if d.thresholds == (analysis.Thresholds{}) {
		d.thresholds = analysis.DefaultThresholds()
	}
	if d.fetchTimeout <= 0 {
		d.fetchTimeout = DefaultFetchTimeout
	}
	if d.locale == "" {
		d.locale = "en"
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d, nil
}

// Backend names the data source behind the dashboard.
func (d *Dashboard) Backend() string { return d.backend }

// Now is the dashboard clock, used to resolve relative periods.
func (d *Dashboard) Now() time.Time { return d.now() }

func (d *Dashboard) cacheKey(p core.Period) string {
	return p.Key() + "|" + d.backend
}

// Load returns the snapshot of period p, from cache when possible. The
// second result reports a cache hit.
func (d *Dashboard) Load(ctx context.Context, p core.Period) (*Data, bool, error) {
	if err := p.Validate(); err != nil {
		return nil, false, fmt.Errorf("load period: %w", err)
	}
	key := d.cacheKey(p)
	if d.cache != nil {
		if data, ok := d.cache.Get(key); ok {
			return data, true, nil
		}
	}

	data, err := d.fetch(ctx, p)
	if err != nil {
		return nil, false, err
	}
	if d.cache != nil {
		d.cache.Set(key, data)
	}
	return data, false, nil
}

func (d *Dashboard) fetch(ctx context.Context, p core.Period) (*Data, error) {
	prevPeriod := p.Previous()
	var (
		accounts   []core.Account
		categories []core.Category
		cards      []core.CreditCard
		current    []core.Transaction
		previous   []core.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = withTimeout(gctx, d.fetchTimeout, d.src.ListAccounts)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = withTimeout(gctx, d.fetchTimeout, d.src.ListCategories)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cards, err = withTimeout(gctx, d.fetchTimeout, d.src.ListCreditCards)
		if err != nil {
			return fmt.Errorf("list credit cards: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		current, err = withTimeout(gctx, d.fetchTimeout, func(ctx context.Context) ([]core.Transaction, error) {
			return d.src.ListTransactions(ctx, source.TransactionQuery{Period: p})
		})
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		previous, err = withTimeout(gctx, d.fetchTimeout, func(ctx context.Context) ([]core.Transaction, error) {
			return d.src.ListTransactions(ctx, source.TransactionQuery{Period: prevPeriod})
		})
		if err != nil {
			// the comparison rules are skipped rather than failing the report
			d.logger.WarnContext(ctx, "Previous period unavailable",
				log.FieldPeriod, prevPeriod.Key(),
				log.FieldError, err)
			previous = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		d.structured.LogError(ctx, "Failed to load period", err, log.ComponentService, log.OpFetch,
			log.NewFields().WithReport(p.Key(), 0, 0, false))
		return nil, err
	}

	if err := core.ValidateTransactions(current); err != nil {
		return nil, fmt.Errorf("current period: %w", err)
	}
	if err := core.ValidateTransactions(previous); err != nil {
		// same as an unavailable previous period: no comparison
		d.logger.WarnContext(ctx, "Previous period has invalid records",
			log.FieldPeriod, prevPeriod.Key(),
			log.FieldError, err)
		previous = nil
	}

	return &Data{
		Period:               p,
		Previous:             prevPeriod,
		Accounts:             accounts,
		Categories:           categories,
		CreditCards:          cards,
		Transactions:         analysis.FilterActive(current, p, accounts, cards),
		PreviousTransactions: analysis.FilterActive(previous, prevPeriod, accounts, cards),
		LoadedAt:             d.now(),
	}, nil
}

func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

// Report builds the dashboard for period p in the given locale; an empty
// locale falls back to the configured default. When a publisher is set, a
// report built from freshly fetched data is announced as an
// insights.generated event; reports served from the cache are not.
func (d *Dashboard) Report(ctx context.Context, p core.Period, locale string) (*Report, error) {
	data, hit, err := d.Load(ctx, p)
	if err != nil {
		return nil, err
	}
	if locale == "" {
		locale = d.locale
	}
	tag := analysis.MatchLocale(locale)
	engine := analysis.Engine{
		Thresholds: d.thresholds,
		Now:        d.now,
		Locale:     tag,
	}

	txs, prev, cats := data.Transactions, data.PreviousTransactions, data.Categories
	r := &Report{
		Period:            data.Period,
		PreviousPeriod:    data.Previous,
		Locale:            tag.String(),
		Summary:           analysis.Summarize(txs, data.Accounts, data.CreditCards),
		Insights:          engine.GenerateInsights(txs, cats, prev),
		KPIs:              engine.CalculateKPIs(txs),
		Trends:            analysis.GenerateTrendAnalysis(txs, cats),
		Monthly:           analysis.MonthlySeries(txs, analysis.MonthlySeriesLimit),
		ExpenseCategories: analysis.RankCategories(txs, cats, analysis.Expenses, analysis.TopCategoryLimit),
		RevenueCategories: analysis.RankCategories(txs, cats, analysis.Revenues, analysis.TopCategoryLimit),
		CategoryTrends:    analysis.CompareCategories(txs, prev, cats, analysis.Expenses),
		Accounts:          data.Accounts,
		CreditCards:       data.CreditCards,
		Transactions:      txs,
		GeneratedAt:       d.now(),
		CacheHit:          hit,
	}
	d.structured.LogReport(ctx, p.Key(), len(txs), len(r.Insights), hit)

	if !hit {
		d.publish(ctx, r)
	}
	return r, nil
}

func (d *Dashboard) publish(ctx context.Context, r *Report) {
	if d.publisher == nil {
		return
	}
	evt := amqp.NewInsightsGeneratedEvent(d.backend, r.Period, r.Locale, r.Summary, r.Insights, r.KPIs, r.GeneratedAt)
	if err := d.publisher.PublishInsightsGenerated(ctx, evt); err != nil {
		d.logger.ErrorContext(ctx, "Failed to publish insights event",
			log.FieldMessageID, evt.MessageID,
			log.FieldPeriod, r.Period.Key(),
			log.FieldError, err)
	}
}

// Invalidate drops the cached snapshot of period p.
func (d *Dashboard) Invalidate(p core.Period) {
	if d.cache == nil {
		return
	}
	d.cache.Delete(d.cacheKey(p))
}

// Purge drops every cached snapshot.
func (d *Dashboard) Purge() {
	if d.cache != nil {
		d.cache.Purge()
	}
}

// CacheStats reports the snapshot cache counters when the cache keeps them.
func (d *Dashboard) CacheStats() (cache.Stats, bool) {
	if r, ok := d.cache.(cache.StatsReporter); ok {
		return r.Stats(), true
	}
	return cache.Stats{}, false
}

// Refresh invalidates period p and rebuilds its report.
func (d *Dashboard) Refresh(ctx context.Context, p core.Period, locale string) (*Report, error) {
	d.Invalidate(p)
	return d.Report(ctx, p, locale)
}

// Ping checks that the data source answers within the fetch timeout.
func (d *Dashboard) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.fetchTimeout)
	defer cancel()
	if err := d.src.Ping(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", d.backend, err)
	}
	return nil
}
