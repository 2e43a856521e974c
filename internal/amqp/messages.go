package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"insighthub/internal/analysis"
	"insighthub/internal/core"
)

// Routing keys on the hub exchange. Refresh requests use the queue name.
const RoutingInsightsGenerated = "insights.generated"

// RefreshRequest asks the worker to recompute the report of a window.
// Empty Start and End mean the current month.
type RefreshRequest struct {
	MessageID   string    `json:"message_id"`
	Start       string    `json:"start,omitempty"`
	End         string    `json:"end,omitempty"`
	Locale      string    `json:"locale,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewRefreshRequest creates a request for p, or for the current month when
// p is nil.
func NewRefreshRequest(p *core.Period, locale string) *RefreshRequest {
	r := &RefreshRequest{
		MessageID:   uuid.NewString(),
		Locale:      locale,
		RequestedAt: time.Now().UTC(),
	}
	if p != nil {
		r.Start = p.Start.String()
		r.End = p.End.String()
	}
	return r
}

// Period resolves the requested window relative to now.
func (r *RefreshRequest) Period(now time.Time) (core.Period, error) {
	if r.Start == "" && r.End == "" {
		return core.MonthPeriod(core.DateOf(now)), nil
	}
	start, err := core.ParseDate(r.Start)
	if err != nil {
		return core.Period{}, fmt.Errorf("refresh start: %w", err)
	}
	end, err := core.ParseDate(r.End)
	if err != nil {
		return core.Period{}, fmt.Errorf("refresh end: %w", err)
	}
	return core.NewPeriod(start, end)
}

func (r *RefreshRequest) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

func RefreshRequestFromJSON(data []byte) (*RefreshRequest, error) {
	var msg RefreshRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// InsightsGeneratedEvent announces a freshly computed report.
type InsightsGeneratedEvent struct {
	MessageID   string                `json:"message_id"`
	Backend     string                `json:"backend"`
	Start       string                `json:"start"`
	End         string                `json:"end"`
	Locale      string                `json:"locale"`
	Summary     core.FinancialSummary `json:"summary"`
	Insights    []analysis.Insight    `json:"insights"`
	KPIs        []analysis.KPI        `json:"kpis"`
	GeneratedAt time.Time             `json:"generated_at"`
}

func NewInsightsGeneratedEvent(backend string, p core.Period, locale string, summary core.FinancialSummary,
	insights []analysis.Insight, kpis []analysis.KPI, generatedAt time.Time) *InsightsGeneratedEvent {
	return &InsightsGeneratedEvent{
		MessageID:   uuid.NewString(),
		Backend:     backend,
		Start:       p.Start.String(),
		End:         p.End.String(),
		Locale:      locale,
		Summary:     summary,
		Insights:    insights,
		KPIs:        kpis,
		GeneratedAt: generatedAt,
	}
}

func (e *InsightsGeneratedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func InsightsGeneratedEventFromJSON(data []byte) (*InsightsGeneratedEvent, error) {
	var evt InsightsGeneratedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}
