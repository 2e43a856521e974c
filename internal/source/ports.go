// Package source declares the outbound ports the dashboard reads financial
// data through. Adapters live in the subpackages.
package source

import (
	"context"

	"insighthub/internal/core"
)

// TransactionQuery narrows a transaction listing. Period is required; the
// account and category filters are optional.
type TransactionQuery struct {
	Period     core.Period
	AccountID  *int64
	CategoryID *int64
}

// Matches reports whether t satisfies every filter of the query.
func (q TransactionQuery) Matches(t core.Transaction) bool {
	if !q.Period.Contains(t.Date) {
		return false
	}
	if q.AccountID != nil && (t.AccountID == nil || *t.AccountID != *q.AccountID) {
		return false
	}
	if q.CategoryID != nil && t.CategoryID != *q.CategoryID {
		return false
	}
	return true
}

// Ports for outbound adapters.
type (
	AccountReader interface {
		ListAccounts(ctx context.Context) ([]core.Account, error)
	}

	CategoryReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	// CreditCardReader lists cards with their current invoice balance
	// filled in when the adapter can resolve it.
	CreditCardReader interface {
		ListCreditCards(ctx context.Context) ([]core.CreditCard, error)
	}

	TransactionLister interface {
		ListTransactions(ctx context.Context, q TransactionQuery) ([]core.Transaction, error)
	}

	// InvoiceLister returns the invoices of one card whose date falls in period.
	InvoiceLister interface {
		ListInvoices(ctx context.Context, cardID int64, period core.Period) ([]core.CreditCardInvoice, error)
	}

	// Pinger checks that the data source is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Source is the full read surface the dashboard needs.
type Source interface {
	AccountReader
	CategoryReader
	CreditCardReader
	TransactionLister
	InvoiceLister
	Pinger
}

// Snapshot is everything fetched for one window, as stored offline.
type Snapshot struct {
	Accounts     []core.Account           `json:"accounts"`
	Categories   []core.Category          `json:"categories"`
	CreditCards  []core.CreditCard        `json:"credit_cards"`
	Transactions []core.Transaction       `json:"transactions"`
	Invoices     []core.CreditCardInvoice `json:"invoices"`
}

// SnapshotWriter persists a fetched snapshot.
type SnapshotWriter interface {
	SaveSnapshot(ctx context.Context, s Snapshot) error
}
