package analysis

import (
	"math"
	"sort"

	"insighthub/internal/core"
)

// TrendAnalysis is one month of the revenue/expense series.
type TrendAnalysis struct {
	Period     string  `json:"period"`
	Revenues   int64   `json:"revenues"`
	Expenses   int64   `json:"expenses"`
	Balance    int64   `json:"balance"`
	GrowthRate float64 `json:"growth_rate"`
}

type TrendDirection string

const (
	DirectionUp     TrendDirection = "up"
	DirectionDown   TrendDirection = "down"
	DirectionStable TrendDirection = "stable"
)

// CategoryTrend compares one category between two periods.
type CategoryTrend struct {
	CategoryID       int64          `json:"category_id"`
	CategoryName     string         `json:"category_name"`
	CurrentAmount    int64          `json:"current_amount"`
	PreviousAmount   int64          `json:"previous_amount"`
	ChangePercentage float64        `json:"change_percentage"`
	Direction        TrendDirection `json:"trend_direction"`
}

// GenerateTrendAnalysis returns one entry per month present in txs, oldest
// first. GrowthRate is the revenue change against the previous entry and is
// 0 for the first entry or when the previous month had no revenue.
//
// Categories are accepted for parity with the other entry points; the
// series does not depend on them.
func GenerateTrendAnalysis(txs []core.Transaction, categories []core.Category) []TrendAnalysis {
	months := GroupByMonth(txs)
	if len(months) == 0 {
		return nil
	}
	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	// YYYY-MM sorts lexically in date order.
	sort.Strings(keys)

	out := make([]TrendAnalysis, len(keys))
	for i, k := range keys {
		m := months[k]
		out[i] = TrendAnalysis{
			Period:   k,
			Revenues: m.Revenues,
			Expenses: m.Expenses,
			Balance:  m.Balance,
		}
		if i > 0 {
			out[i].GrowthRate = percentChange(m.Revenues, out[i-1].Revenues)
		}
	}
	return out
}

// MonthlySeries returns the most recent limit months of the trend series.
func MonthlySeries(txs []core.Transaction, limit int) []TrendAnalysis {
	series := GenerateTrendAnalysis(txs, nil)
	if limit > 0 && len(series) > limit {
		series = series[len(series)-limit:]
	}
	return series
}

// CompareCategories lines up per-category totals of two periods. A category
// present in either period is reported. The result is ordered by current
// amount, then previous amount, largest first.
func CompareCategories(current, previous []core.Transaction, categories []core.Category, sign Sign) []CategoryTrend {
	cur := GroupByCategory(current, sign)
	prev := GroupByCategory(previous, sign)

	var order []int64
	seen := make(map[int64]bool)
	for _, txs := range [][]core.Transaction{current, previous} {
		for _, t := range txs {
			if !sign.matches(t) || seen[t.CategoryID] {
				continue
			}
			seen[t.CategoryID] = true
			order = append(order, t.CategoryID)
		}
	}

	idx := core.CategoryIndex(categories)
	out := make([]CategoryTrend, 0, len(order))
	for _, id := range order {
		ct := CategoryTrend{
			CategoryID:     id,
			CategoryName:   UnknownCategory,
			CurrentAmount:  cur[id].TotalAmount,
			PreviousAmount: prev[id].TotalAmount,
		}
		if c, ok := idx[id]; ok {
			ct.CategoryName = c.Name
		}
		switch {
		case ct.PreviousAmount > 0:
			ct.ChangePercentage = percentChange(ct.CurrentAmount, ct.PreviousAmount)
		case ct.CurrentAmount > 0:
			ct.ChangePercentage = 100
		}
		ct.Direction = directionOf(ct.ChangePercentage)
		out = append(out, ct)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CurrentAmount != out[j].CurrentAmount {
			return out[i].CurrentAmount > out[j].CurrentAmount
		}
		return out[i].PreviousAmount > out[j].PreviousAmount
	})
	return out
}

func directionOf(change float64) TrendDirection {
	switch {
	case math.Abs(change) < StableChangePct:
		return DirectionStable
	case change > 0:
		return DirectionUp
	default:
		return DirectionDown
	}
}
