// Package http exposes the dashboard as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"insighthub/internal/log"
	"insighthub/internal/middleware/ratelimit"
	"insighthub/internal/middleware/security"
	"insighthub/internal/middleware/trace"
	"insighthub/internal/service"
)

// Options tunes the server. The zero value is usable.
type Options struct {
	// RefreshPerMinute limits POST requests per client.
	RefreshPerMinute int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
}

type Server struct {
	http.Server
	dashboard *service.Dashboard
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	logger    *log.Logger

	shutdownOnce sync.Once
}

func NewServer(addr string, d *service.Dashboard, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 60 * time.Second
	}

	s := &Server{
		dashboard: d,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RefreshPerMinute}),
		detector:  security.NewDetector(),
		logger:    logger.WithComponent(log.ComponentHTTP),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: opts.ReadTimeout,
		ReadTimeout:       opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/insights", s.handleInsights)
		r.Get("/kpis", s.handleKPIs)
		r.Get("/trends", s.handleTrends)
		r.Get("/monthly", s.handleMonthly)
		r.Get("/categories", s.handleCategories)
		r.Get("/category-trends", s.handleCategoryTrends)
		r.Get("/accounts", s.handleAccounts)
		r.Get("/credit-cards", s.handleCreditCards)
		r.Get("/transactions", s.handleTransactions)

		r.With(s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited)).
			Post("/refresh", s.handleRefresh)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", RequestID: trace.GetRequestID(r.Context())})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", RequestID: trace.GetRequestID(r.Context())})
	})
	return r
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{
		Error:     "rate limit exceeded, try again later",
		RequestID: trace.GetRequestID(r.Context()),
	})
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
