package analysis

import (
	"insighthub/internal/core"
)

// Summarize computes the headline totals for a period. Archived accounts
// and cards do not contribute to the balances.
func Summarize(txs []core.Transaction, accounts []core.Account, cards []core.CreditCard) core.FinancialSummary {
	totals := ComputeTotals(txs)
	out := core.FinancialSummary{
		TotalRevenues: totals.Revenues,
		TotalExpenses: totals.Expenses,
		Balance:       totals.Balance(),
	}
	for _, a := range accounts {
		if !a.Archived && a.BalanceCents != nil {
			out.AccountsBalance += *a.BalanceCents
		}
	}
	for _, c := range cards {
		if !c.Archived && c.CurrentBalanceCents != nil {
			out.CreditCardsBalance += *c.CurrentBalanceCents
		}
	}
	return out
}

// FilterActive keeps the transactions dated inside period. A transaction on
// an archived account or card is dropped when it is dated on or after the
// day the account was archived, approximated by its last update.
// The input slice is not modified.
func FilterActive(txs []core.Transaction, period core.Period, accounts []core.Account, cards []core.CreditCard) []core.Transaction {
	archivedAccounts := make(map[int64]core.Date)
	for _, a := range accounts {
		if a.Archived {
			archivedAccounts[a.ID] = core.DateOf(a.UpdatedAt)
		}
	}
	archivedCards := make(map[int64]core.Date)
	for _, c := range cards {
		if c.Archived {
			archivedCards[c.ID] = core.DateOf(c.UpdatedAt)
		}
	}

	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if !period.Contains(t.Date) {
			continue
		}
		if t.AccountID != nil {
			if at, ok := archivedAccounts[*t.AccountID]; ok && !t.Date.Before(at.Time) {
				continue
			}
		}
		if t.CreditCardID != nil {
			if at, ok := archivedCards[*t.CreditCardID]; ok && !t.Date.Before(at.Time) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}
