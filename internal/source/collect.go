package source

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"insighthub/internal/core"
)

// Collect fetches everything a source holds for period p. Accounts,
// categories, cards and transactions load concurrently; invoices are then
// listed card by card.
func Collect(ctx context.Context, src Source, p core.Period) (Snapshot, error) {
	if err := p.Validate(); err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Accounts, err = src.ListAccounts(gctx)
		return wrap("accounts", err)
	})
	g.Go(func() (err error) {
		snap.Categories, err = src.ListCategories(gctx)
		return wrap("categories", err)
	})
	g.Go(func() (err error) {
		snap.CreditCards, err = src.ListCreditCards(gctx)
		return wrap("credit cards", err)
	})
	g.Go(func() (err error) {
		snap.Transactions, err = src.ListTransactions(gctx, TransactionQuery{Period: p})
		return wrap("transactions", err)
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	for _, card := range snap.CreditCards {
		invoices, err := src.ListInvoices(ctx, card.ID, p)
		if err != nil {
			return Snapshot{}, fmt.Errorf("invoices of card %d: %w", card.ID, err)
		}
		snap.Invoices = append(snap.Invoices, invoices...)
	}
	return snap, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
