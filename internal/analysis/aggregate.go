package analysis

import (
	"sort"

	"insighthub/internal/core"
)

// Sign selects which side of the ledger an aggregation looks at.
type Sign int

const (
	Expenses Sign = iota
	Revenues
)

// ParseSign maps the query-string spelling to a Sign.
func ParseSign(s string) (Sign, bool) {
	switch s {
	case "", "expense", "expenses":
		return Expenses, true
	case "revenue", "revenues":
		return Revenues, true
	}
	return Expenses, false
}

func (s Sign) String() string {
	if s == Revenues {
		return "revenues"
	}
	return "expenses"
}

func (s Sign) matches(t core.Transaction) bool {
	if s == Revenues {
		return t.IsRevenue()
	}
	return t.IsExpense()
}

// UnknownCategory labels transactions whose category id is not in the set.
const UnknownCategory = "Unknown category"

// CategoryTotal is the absolute total of one category for one sign.
type CategoryTotal struct {
	CategoryID       int64 `json:"category_id"`
	TotalAmount      int64 `json:"total_amount"`
	TransactionCount int   `json:"transaction_count"`
}

// CategoryShare is a ranked category with display data attached.
type CategoryShare struct {
	CategoryID       int64   `json:"category_id"`
	Name             string  `json:"name"`
	Color            string  `json:"color"`
	TotalAmount      int64   `json:"total_amount"`
	TransactionCount int     `json:"transaction_count"`
	Percentage       float64 `json:"percentage"`
}

// Totals are the sign-split sums of a transaction set.
type Totals struct {
	Revenues     int64 `json:"revenues"`
	Expenses     int64 `json:"expenses"`
	RevenueCount int   `json:"revenue_count"`
	ExpenseCount int   `json:"expense_count"`
}

// Balance is revenues minus expenses.
func (t Totals) Balance() int64 {
	return t.Revenues - t.Expenses
}

// ComputeTotals sums revenues and expenses as absolute values.
func ComputeTotals(txs []core.Transaction) Totals {
	var out Totals
	for _, t := range txs {
		switch {
		case t.IsRevenue():
			out.Revenues += t.AmountCents
			out.RevenueCount++
		case t.IsExpense():
			out.Expenses += t.Magnitude()
			out.ExpenseCount++
		}
	}
	return out
}

// GroupByCategory totals the transactions of the given sign per category.
// Categories without a matching transaction are absent from the result.
func GroupByCategory(txs []core.Transaction, sign Sign) map[int64]CategoryTotal {
	out := make(map[int64]CategoryTotal)
	for _, t := range txs {
		if !sign.matches(t) {
			continue
		}
		ct := out[t.CategoryID]
		ct.CategoryID = t.CategoryID
		ct.TotalAmount += t.Magnitude()
		ct.TransactionCount++
		out[t.CategoryID] = ct
	}
	return out
}

// RankCategories orders category totals by amount, largest first, and keeps
// at most limit entries (limit <= 0 keeps all). Equal totals keep the order
// in which their category first appeared in txs. Percentages are relative to
// the full total of the sign, not only the kept entries.
func RankCategories(txs []core.Transaction, categories []core.Category, sign Sign, limit int) []CategoryShare {
	totals := GroupByCategory(txs, sign)
	if len(totals) == 0 {
		return nil
	}

	order := make([]int64, 0, len(totals))
	seen := make(map[int64]bool, len(totals))
	var grand int64
	for _, t := range txs {
		if !sign.matches(t) || seen[t.CategoryID] {
			continue
		}
		seen[t.CategoryID] = true
		order = append(order, t.CategoryID)
		grand += totals[t.CategoryID].TotalAmount
	}

	sort.SliceStable(order, func(i, j int) bool {
		return totals[order[i]].TotalAmount > totals[order[j]].TotalAmount
	})
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}

	idx := core.CategoryIndex(categories)
	out := make([]CategoryShare, 0, len(order))
	for _, id := range order {
		ct := totals[id]
		share := CategoryShare{
			CategoryID:       id,
			Name:             UnknownCategory,
			TotalAmount:      ct.TotalAmount,
			TransactionCount: ct.TransactionCount,
			Percentage:       percentOf(ct.TotalAmount, grand),
		}
		if c, ok := idx[id]; ok {
			share.Name = c.Name
			share.Color = c.Color
		}
		out = append(out, share)
	}
	return out
}

// GroupByMonth totals revenues and expenses per YYYY-MM key. Keys are taken
// from the UTC calendar date so the grouping is independent of the host zone.
func GroupByMonth(txs []core.Transaction) map[string]core.MonthSummary {
	out := make(map[string]core.MonthSummary)
	for _, t := range txs {
		key := t.Date.MonthKey()
		m := out[key]
		m.Add(t)
		out[key] = m
	}
	return out
}

// percentOf returns part/whole on a 0-100 scale, or 0 when whole is 0.
// The multiplication happens before the division so that exact ratios such
// as 3000 of 10000 come out as exactly 30.
func percentOf(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// percentChange returns the signed change from prev to cur on a 0-100 scale.
func percentChange(cur, prev int64) float64 {
	if prev == 0 {
		return 0
	}
	return float64(cur-prev) * 100 / float64(prev)
}
