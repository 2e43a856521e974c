package memory

import (
	"context"
	"testing"

	"insighthub/internal/analysis"
	"insighthub/internal/core"
	"insighthub/internal/source"
)

var ref = core.NewDate(2024, 12, 20)

func TestDemoSnapshotIsDeterministic(t *testing.T) {
	a := DemoSnapshot(ref)
	b := DemoSnapshot(ref)
	if len(a.Transactions) != len(b.Transactions) {
		t.Fatalf("transaction counts differ: %d vs %d", len(a.Transactions), len(b.Transactions))
	}
	for i := range a.Transactions {
		if a.Transactions[i].ID != b.Transactions[i].ID || a.Transactions[i].AmountCents != b.Transactions[i].AmountCents ||
			!a.Transactions[i].Date.Equal(b.Transactions[i].Date.Time) {
			t.Fatalf("transaction %d differs", i)
		}
	}
	if err := core.ValidateTransactions(a.Transactions); err != nil {
		t.Fatalf("demo data should validate: %v", err)
	}
}

func TestDemoCoversSixMonths(t *testing.T) {
	s := NewDemo(ref)
	p := core.Period{Start: core.NewDate(2024, 7, 1), End: core.NewDate(2024, 12, 31)}
	txs, err := s.ListTransactions(context.Background(), source.TransactionQuery{Period: p})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	months := analysis.GroupByMonth(txs)
	if len(months) != 6 {
		t.Fatalf("expected 6 months, got %d", len(months))
	}
	if _, ok := months["2024-12"]; !ok {
		t.Fatal("reference month missing")
	}
}

func TestListTransactionsFilters(t *testing.T) {
	s := NewDemo(ref)
	ctx := context.Background()
	month := core.MonthPeriod(ref)

	all, err := s.ListTransactions(ctx, source.TransactionQuery{Period: month})
	if err != nil || len(all) == 0 {
		t.Fatalf("expected transactions in %s, got %d (err=%v)", month, len(all), err)
	}
	for _, tr := range all {
		if !month.Contains(tr.Date) {
			t.Fatalf("transaction %d outside window: %s", tr.ID, tr.Date)
		}
	}

	byAccount, _ := s.ListTransactions(ctx, source.TransactionQuery{Period: month, AccountID: core.Int64Ptr(1)})
	for _, tr := range byAccount {
		if tr.AccountID == nil || *tr.AccountID != 1 {
			t.Fatalf("account filter leaked %+v", tr)
		}
	}
	byCategory, _ := s.ListTransactions(ctx, source.TransactionQuery{Period: month, CategoryID: core.Int64Ptr(10)})
	if len(byCategory) != 1 || byCategory[0].AmountCents != -180000 {
		t.Fatalf("category filter: %+v", byCategory)
	}
}

func TestArchivedAccountsAreFilteredByAnalysis(t *testing.T) {
	snap := DemoSnapshot(ref)
	p := core.Period{Start: core.NewDate(2024, 7, 1), End: core.NewDate(2024, 12, 31)}
	active := analysis.FilterActive(snap.Transactions, p, snap.Accounts, snap.CreditCards)
	dropped := map[string]bool{}
	for _, tr := range snap.Transactions {
		dropped[tr.Description] = true
	}
	for _, tr := range active {
		delete(dropped, tr.Description)
	}
	for _, desc := range []string{"Transferência Final", "Assinatura Streaming"} {
		if !dropped[desc] {
			t.Errorf("%q should be dropped after archiving", desc)
		}
	}
	for _, desc := range []string{"Tarifa Bancária", "Livraria Cultura"} {
		if dropped[desc] {
			t.Errorf("%q predates archiving and should be kept", desc)
		}
	}
}

func TestListInvoices(t *testing.T) {
	s := NewDemo(ref)
	inv, err := s.ListInvoices(context.Background(), 1, core.MonthPeriod(ref))
	if err != nil || len(inv) != 1 || inv[0].CreditCardID != 1 {
		t.Fatalf("unexpected invoices %+v (err=%v)", inv, err)
	}
	inv, _ = s.ListInvoices(context.Background(), 3, core.MonthPeriod(ref))
	if len(inv) != 0 {
		t.Fatalf("archived card should have no invoices, got %+v", inv)
	}
}

func TestSaveSnapshotReplacesData(t *testing.T) {
	s := New(source.Snapshot{})
	cats, _ := s.ListCategories(context.Background())
	if len(cats) != 0 {
		t.Fatalf("expected empty store")
	}
	err := s.SaveSnapshot(context.Background(), source.Snapshot{Categories: []core.Category{{ID: 1, Name: "A"}}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	cats, _ = s.ListCategories(context.Background())
	if len(cats) != 1 || cats[0].Name != "A" {
		t.Fatalf("unexpected categories %+v", cats)
	}
}

func TestPingHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewDemo(ref).Ping(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
