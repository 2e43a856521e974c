package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"insighthub/internal/core"
)

type InsightType string

const (
	InsightTrend          InsightType = "trend"
	InsightAlert          InsightType = "alert"
	InsightRecommendation InsightType = "recommendation"
	InsightAchievement    InsightType = "achievement"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Period labels attached to insights.
const (
	PeriodMonthly = "monthly"
	PeriodCurrent = "current"
)

// Rule names, also used as the id prefix of the insight they emit.
const (
	RuleExpenseTrend     = "expense-trend"
	RuleRevenueTrend     = "revenue-trend"
	RuleDominantCategory = "dominant-category"
	RuleSpendingAnomaly  = "spending-anomaly"
	RuleSavingsRate      = "savings-rate"
)

// Insight is a generated observation about the current period.
// Value is in cents and Change is a signed percentage.
type Insight struct {
	ID          string      `json:"id"`
	Rule        string      `json:"rule"`
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Value       *int64      `json:"value,omitempty"`
	Change      *float64    `json:"change,omitempty"`
	Severity    Severity    `json:"severity"`
	Category    string      `json:"category,omitempty"`
	Period      string      `json:"period"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Engine evaluates the insight rules and KPIs with injectable limits,
// clock and locale. The zero value is not ready for use; see NewEngine.
type Engine struct {
	Thresholds Thresholds
	Now        func() time.Time
	Locale     language.Tag
}

// NewEngine returns an engine with default thresholds, the wall clock and
// English prose.
func NewEngine() Engine {
	return Engine{
		Thresholds: DefaultThresholds(),
		Now:        time.Now,
		Locale:     language.English,
	}
}

// GenerateInsights runs the default engine.
func GenerateInsights(current []core.Transaction, categories []core.Category, previous []core.Transaction) []Insight {
	return NewEngine().GenerateInsights(current, categories, previous)
}

// insightRun carries the per-call state shared by the rules.
type insightRun struct {
	th      Thresholds
	p       *message.Printer
	now     time.Time
	stamp   int64
	seq     int
	results []Insight
}

func (r *insightRun) emit(rule string, in Insight) {
	r.seq++
	in.ID = fmt.Sprintf("%s-%d-%d", rule, r.stamp, r.seq)
	in.Rule = rule
	in.CreatedAt = r.now
	r.results = append(r.results, in)
}

// GenerateInsights evaluates the rules in a fixed order: expense trend,
// revenue trend, dominant category, spending anomalies, savings health.
// Each rule emits at most one insight. The trend rules only run when
// previous is non-empty.
func (e Engine) GenerateInsights(current []core.Transaction, categories []core.Category, previous []core.Transaction) []Insight {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	ts := now()
	run := &insightRun{
		th:    e.Thresholds,
		p:     newPrinter(e.Locale),
		now:   ts,
		stamp: ts.UnixMilli(),
	}

	cur := ComputeTotals(current)
	if len(previous) > 0 {
		prev := ComputeTotals(previous)
		run.expenseTrend(cur, prev)
		run.revenueTrend(cur, prev)
	}
	run.dominantCategory(current, categories)
	run.spendingAnomaly(current)
	run.savingsHealth(cur)

	sort.SliceStable(run.results, func(i, j int) bool {
		return run.results[i].CreatedAt.After(run.results[j].CreatedAt)
	})
	return run.results
}

func (r *insightRun) expenseTrend(cur, prev Totals) {
	if prev.Expenses <= 0 {
		return
	}
	change := percentChange(cur.Expenses, prev.Expenses)
	if math.Abs(change) <= r.th.ExpenseChangePct {
		return
	}
	in := Insight{
		Type:     InsightAchievement,
		Title:    r.p.Sprintf(msgExpenseDownTitle),
		Value:    int64Ptr(cur.Expenses),
		Change:   float64Ptr(change),
		Severity: severityAbove(math.Abs(change), r.th.ExpenseHighPct),
		Period:   PeriodMonthly,
	}
	in.Description = r.p.Sprintf(msgExpenseDownDesc, math.Abs(change))
	if change > 0 {
		in.Type = InsightAlert
		in.Title = r.p.Sprintf(msgExpenseUpTitle)
		in.Description = r.p.Sprintf(msgExpenseUpDesc, change)
	}
	r.emit(RuleExpenseTrend, in)
}

func (r *insightRun) revenueTrend(cur, prev Totals) {
	if prev.Revenues <= 0 {
		return
	}
	change := percentChange(cur.Revenues, prev.Revenues)
	if math.Abs(change) <= r.th.RevenueChangePct {
		return
	}
	in := Insight{
		Type:     InsightAlert,
		Title:    r.p.Sprintf(msgRevenueDownTitle),
		Value:    int64Ptr(cur.Revenues),
		Change:   float64Ptr(change),
		Severity: severityAbove(math.Abs(change), r.th.RevenueHighPct),
		Period:   PeriodMonthly,
	}
	in.Description = r.p.Sprintf(msgRevenueDownDesc, math.Abs(change))
	if change > 0 {
		in.Type = InsightAchievement
		in.Title = r.p.Sprintf(msgRevenueUpTitle)
		in.Description = r.p.Sprintf(msgRevenueUpDesc, change)
	}
	r.emit(RuleRevenueTrend, in)
}

func (r *insightRun) dominantCategory(current []core.Transaction, categories []core.Category) {
	ranked := RankCategories(current, categories, Expenses, 1)
	if len(ranked) == 0 {
		return
	}
	top := ranked[0]
	if top.Percentage <= r.th.DominantPct {
		return
	}
	// an unknown category has no name to report; only the text mentions it
	label, shown := top.Name, top.Name
	if top.Name == UnknownCategory {
		label, shown = "", r.p.Sprintf(msgUnknownCategory)
	}
	r.emit(RuleDominantCategory, Insight{
		Type:        InsightAlert,
		Title:       r.p.Sprintf(msgDominantTitle),
		Description: r.p.Sprintf(msgDominantDesc, top.Percentage, shown),
		Value:       int64Ptr(top.TotalAmount),
		Severity:    severityAbove(top.Percentage, r.th.DominantHighPct),
		Category:    label,
		Period:      PeriodCurrent,
	})
}

func (r *insightRun) spendingAnomaly(current []core.Transaction) {
	var amounts []int64
	var sum int64
	for _, t := range current {
		if t.IsExpense() {
			amounts = append(amounts, t.Magnitude())
			sum += t.Magnitude()
		}
	}
	if len(amounts) < r.th.AnomalyMinExpenses || len(amounts) == 0 {
		return
	}
	threshold := r.th.AnomalyMultiplier * float64(sum) / float64(len(amounts))

	var count int
	var anomalous int64
	for _, a := range amounts {
		if float64(a) > threshold {
			count++
			anomalous += a
		}
	}
	if count == 0 {
		return
	}
	r.emit(RuleSpendingAnomaly, Insight{
		Type:        InsightAlert,
		Title:       r.p.Sprintf(msgAnomalyTitle),
		Description: r.p.Sprintf(msgAnomalyDesc, count),
		Value:       int64Ptr(anomalous),
		Severity:    SeverityMedium,
		Period:      PeriodCurrent,
	})
}

func (r *insightRun) savingsHealth(cur Totals) {
	if cur.Revenues <= 0 {
		return
	}
	rate := percentOf(cur.Balance(), cur.Revenues)
	net := cur.Balance()
	if net < 0 {
		net = -net
	}
	switch {
	case rate > r.th.SavingsGoodPct:
		r.emit(RuleSavingsRate, Insight{
			Type:        InsightAchievement,
			Title:       r.p.Sprintf(msgSavingsGoodTitle),
			Description: r.p.Sprintf(msgSavingsGoodDesc, rate),
			Value:       int64Ptr(net),
			Severity:    SeverityLow,
			Period:      PeriodCurrent,
		})
	case rate < r.th.SavingsLowPct:
		sev := SeverityMedium
		if rate < 0 {
			sev = SeverityHigh
		}
		r.emit(RuleSavingsRate, Insight{
			Type:        InsightRecommendation,
			Title:       r.p.Sprintf(msgSavingsLowTitle),
			Description: r.p.Sprintf(msgSavingsLowDesc, rate),
			Value:       int64Ptr(net),
			Severity:    sev,
			Period:      PeriodCurrent,
		})
	}
}

// severityAbove is high when v exceeds the high mark and medium otherwise.
func severityAbove(v, high float64) Severity {
	if v > high {
		return SeverityHigh
	}
	return SeverityMedium
}

func int64Ptr(v int64) *int64 { return &v }

func float64Ptr(v float64) *float64 { return &v }
