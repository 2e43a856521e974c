package core

// FinancialSummary is the headline block of the dashboard.
type FinancialSummary struct {
	TotalRevenues      int64 `json:"total_revenues"`
	TotalExpenses      int64 `json:"total_expenses"`
	Balance            int64 `json:"balance"`
	AccountsBalance    int64 `json:"accounts_balance"`
	CreditCardsBalance int64 `json:"credit_cards_balance"`
}

// MonthSummary holds the absolute revenue and expense totals for one month.
type MonthSummary struct {
	Revenues int64 `json:"revenues"`
	Expenses int64 `json:"expenses"`
	Balance  int64 `json:"balance"`
}

// Add folds one transaction into the month.
func (m *MonthSummary) Add(t Transaction) {
	switch {
	case t.IsRevenue():
		m.Revenues += t.AmountCents
	case t.IsExpense():
		m.Expenses += t.Magnitude()
	}
	m.Balance = m.Revenues - m.Expenses
}
