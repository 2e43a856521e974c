// Package analysis turns transaction snapshots into category rankings,
// monthly trends, KPIs and insights.
//
// Every function in this package is pure: it reads its arguments, never
// mutates them, and keeps no state between calls. The only ambient input
// is the clock used to stamp insights, which Engine lets callers replace.
package analysis

// Thresholds collects the tunable limits of the insight rules. Percentages
// are expressed on a 0-100 scale and every comparison against them is strict.
type Thresholds struct {
	// Expense trend rule.
	ExpenseChangePct float64
	ExpenseHighPct   float64

	// Revenue trend rule.
	RevenueChangePct float64
	RevenueHighPct   float64

	// Dominant category rule.
	DominantPct     float64
	DominantHighPct float64

	// Anomaly rule: an expense is anomalous above Multiplier times the mean.
	AnomalyMultiplier  float64
	AnomalyMinExpenses int

	// Savings health rule.
	SavingsGoodPct float64
	SavingsLowPct  float64

	// SavingsTarget is the display target of the savings-rate KPI.
	SavingsTarget float64
}

// DefaultThresholds returns the stock rule limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExpenseChangePct:   10,
		ExpenseHighPct:     20,
		RevenueChangePct:   5,
		RevenueHighPct:     15,
		DominantPct:        30,
		DominantHighPct:    50,
		AnomalyMultiplier:  2,
		AnomalyMinExpenses: 5,
		SavingsGoodPct:     20,
		SavingsLowPct:      10,
		SavingsTarget:      20,
	}
}

// TopCategoryLimit is how many categories the breakdown chart shows.
const TopCategoryLimit = 8

// MonthlySeriesLimit is how many months the monthly chart shows.
const MonthlySeriesLimit = 12

// StableChangePct is the band inside which a category trend counts as stable.
const StableChangePct = 5
