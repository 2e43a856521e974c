package http

import (
	"net/http"
	"time"

	"insighthub/internal/analysis"
	"insighthub/internal/cache"
	"insighthub/internal/core"
	"insighthub/internal/format"
	"insighthub/internal/log"
	"insighthub/internal/service"
	"insighthub/internal/source"
)

type kpiView struct {
	analysis.KPI
	Display string `json:"display"`
}

type displayView struct {
	Summary format.Summary `json:"summary"`
	KPIs    []kpiView      `json:"kpis"`
}

type dashboardResponse struct {
	*service.Report
	Display displayView `json:"display"`
}

type periodResponse[T any] struct {
	Period core.Period `json:"period"`
	Items  T           `json:"items"`
}

func kpiViews(f *format.Formatter, kpis []analysis.KPI) []kpiView {
	out := make([]kpiView, len(kpis))
	for i, k := range kpis {
		out[i] = kpiView{KPI: k, Display: f.KPI(k)}
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readyResponse struct {
	Status  string       `json:"status"`
	Backend string       `json:"backend"`
	Cache   *cache.Stats `json:"cache,omitempty"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{Status: "ready", Backend: s.dashboard.Backend()}
	if stats, ok := s.dashboard.CacheStats(); ok {
		resp.Cache = &stats
	}
	if err := s.dashboard.Ping(r.Context()); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
			log.FieldBackend, resp.Backend,
			log.FieldError, err)
		resp.Status = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// report resolves the request period and builds its report, writing the
// error response itself on failure.
func (s *Server) report(w http.ResponseWriter, r *http.Request) (*service.Report, bool) {
	p, err := parsePeriod(r.URL.Query(), s.dashboard.Now())
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	rep, err := s.dashboard.Report(r.Context(), p, parseLocale(r))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return rep, true
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*service.Data, bool) {
	p, err := parsePeriod(r.URL.Query(), s.dashboard.Now())
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	data, _, err := s.dashboard.Load(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return data, true
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	f := format.New(rep.Locale)
	writeJSON(w, http.StatusOK, dashboardResponse{
		Report: rep,
		Display: displayView{
			Summary: f.Summary(rep.Summary),
			KPIs:    kpiViews(f, rep.KPIs),
		},
	})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if rep, ok := s.report(w, r); ok {
		writeJSON(w, http.StatusOK, periodResponse[[]analysis.Insight]{Period: rep.Period, Items: rep.Insights})
	}
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	if rep, ok := s.report(w, r); ok {
		f := format.New(rep.Locale)
		writeJSON(w, http.StatusOK, periodResponse[[]kpiView]{Period: rep.Period, Items: kpiViews(f, rep.KPIs)})
	}
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if rep, ok := s.report(w, r); ok {
		writeJSON(w, http.StatusOK, periodResponse[[]analysis.TrendAnalysis]{Period: rep.Period, Items: rep.Trends})
	}
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	if rep, ok := s.report(w, r); ok {
		writeJSON(w, http.StatusOK, periodResponse[[]analysis.TrendAnalysis]{Period: rep.Period, Items: rep.Monthly})
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sign, err := parseSign(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := parseLimit(q, analysis.TopCategoryLimit, 100)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, ok := s.load(w, r)
	if !ok {
		return
	}
	ranked := analysis.RankCategories(data.Transactions, data.Categories, sign, limit)
	writeJSON(w, http.StatusOK, periodResponse[[]analysis.CategoryShare]{Period: data.Period, Items: ranked})
}

func (s *Server) handleCategoryTrends(w http.ResponseWriter, r *http.Request) {
	sign, err := parseSign(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, ok := s.load(w, r)
	if !ok {
		return
	}
	trends := analysis.CompareCategories(data.Transactions, data.PreviousTransactions, data.Categories, sign)
	writeJSON(w, http.StatusOK, periodResponse[[]analysis.CategoryTrend]{Period: data.Period, Items: trends})
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if data, ok := s.load(w, r); ok {
		writeJSON(w, http.StatusOK, periodResponse[[]core.Account]{Period: data.Period, Items: data.Accounts})
	}
}

func (s *Server) handleCreditCards(w http.ResponseWriter, r *http.Request) {
	if data, ok := s.load(w, r); ok {
		writeJSON(w, http.StatusOK, periodResponse[[]core.CreditCard]{Period: data.Period, Items: data.CreditCards})
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accountID, err := parseOptionalID(q, "account_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	categoryID, err := parseOptionalID(q, "category_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, ok := s.load(w, r)
	if !ok {
		return
	}

	filter := source.TransactionQuery{Period: data.Period, AccountID: accountID, CategoryID: categoryID}
	txs := make([]core.Transaction, 0, len(data.Transactions))
	for _, t := range data.Transactions {
		if filter.Matches(t) {
			txs = append(txs, t)
		}
	}
	writeJSON(w, http.StatusOK, periodResponse[[]core.Transaction]{Period: data.Period, Items: txs})
}

type refreshResponse struct {
	Period       core.Period `json:"period"`
	Transactions int         `json:"transactions"`
	Insights     int         `json:"insights"`
	GeneratedAt  time.Time   `json:"generated_at"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r.URL.Query(), s.dashboard.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.dashboard.Refresh(r.Context(), p, parseLocale(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Period:       rep.Period,
		Transactions: len(rep.Transactions),
		Insights:     len(rep.Insights),
		GeneratedAt:  rep.GeneratedAt,
	})
}
