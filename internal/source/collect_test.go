package source_test

import (
	"context"
	"errors"
	"testing"

	"insighthub/internal/core"
	"insighthub/internal/source"
	"insighthub/internal/source/memory"
)

type failingInvoices struct{ *memory.Store }

var errInvoices = errors.New("invoices unavailable")

func (failingInvoices) ListInvoices(context.Context, int64, core.Period) ([]core.CreditCardInvoice, error) {
	return nil, errInvoices
}

func TestCollect(t *testing.T) {
	ref := core.NewDate(2024, 12, 20)
	store := memory.NewDemo(ref)
	p := core.MonthPeriod(ref)

	snap, err := source.Collect(context.Background(), store, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Accounts) == 0 || len(snap.Categories) == 0 || len(snap.CreditCards) == 0 {
		t.Fatalf("reference data missing: %+v", snap)
	}
	for _, tx := range snap.Transactions {
		if !p.Contains(tx.Date) {
			t.Errorf("transaction %d on %s is outside %s", tx.ID, tx.Date, p)
		}
	}
	if len(snap.Invoices) != 2 {
		t.Errorf("invoices = %d, want 2", len(snap.Invoices))
	}
}

func TestCollectErrors(t *testing.T) {
	ref := core.NewDate(2024, 12, 20)

	_, err := source.Collect(context.Background(), failingInvoices{memory.NewDemo(ref)}, core.MonthPeriod(ref))
	if !errors.Is(err, errInvoices) {
		t.Errorf("err = %v, want invoice failure", err)
	}

	inverted := core.Period{Start: core.NewDate(2024, 5, 31), End: core.NewDate(2024, 5, 1)}
	if _, err := source.Collect(context.Background(), memory.NewDemo(ref), inverted); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Errorf("err = %v, want ErrInvalidPeriod", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := source.Collect(ctx, memory.NewDemo(ref), core.MonthPeriod(ref)); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
