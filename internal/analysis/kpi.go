package analysis

import (
	"insighthub/internal/core"
)

type Unit string

const (
	UnitCurrency   Unit = "currency"
	UnitPercentage Unit = "percentage"
	UnitCount      Unit = "count"
)

type KPITrend string

const (
	KPIPositive KPITrend = "positive"
	KPINegative KPITrend = "negative"
	KPINeutral  KPITrend = "neutral"
)

// Stable KPI keys.
const (
	KPISavingsRate          = "savings_rate"
	KPITransactionCount     = "transaction_count"
	KPIAverageExpenseTicket = "average_expense_ticket"
)

// KPI is a scalar indicator. Currency values are in cents.
type KPI struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Value       float64  `json:"value"`
	Unit        Unit     `json:"unit"`
	Target      *float64 `json:"target,omitempty"`
	Trend       KPITrend `json:"trend"`
	Description string   `json:"description"`
}

// CalculateKPIs runs the default engine.
func CalculateKPIs(txs []core.Transaction) []KPI {
	return NewEngine().CalculateKPIs(txs)
}

// CalculateKPIs returns savings rate, transaction count and average expense
// ticket, in that order. An empty set yields three zero-valued KPIs.
func (e Engine) CalculateKPIs(txs []core.Transaction) []KPI {
	p := newPrinter(e.Locale)
	totals := ComputeTotals(txs)

	trend := KPINegative
	if totals.Balance() > 0 {
		trend = KPIPositive
	}

	var ticket float64
	if totals.ExpenseCount > 0 {
		ticket = float64(totals.Expenses) / float64(totals.ExpenseCount)
	}

	return []KPI{
		{
			Key:         KPISavingsRate,
			Name:        p.Sprintf(msgKPISavingsName),
			Value:       percentOf(totals.Balance(), totals.Revenues),
			Unit:        UnitPercentage,
			Target:      float64Ptr(e.Thresholds.SavingsTarget),
			Trend:       trend,
			Description: p.Sprintf(msgKPISavingsDesc),
		},
		{
			Key:         KPITransactionCount,
			Name:        p.Sprintf(msgKPICountName),
			Value:       float64(len(txs)),
			Unit:        UnitCount,
			Trend:       KPINeutral,
			Description: p.Sprintf(msgKPICountDesc),
		},
		{
			Key:         KPIAverageExpenseTicket,
			Name:        p.Sprintf(msgKPITicketName),
			Value:       ticket,
			Unit:        UnitCurrency,
			Trend:       trend,
			Description: p.Sprintf(msgKPITicketDesc),
		},
	}
}
