package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"insighthub/internal/core"
	"insighthub/internal/log"
	"insighthub/internal/source"
	"insighthub/internal/source/memory"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "hub.db"), log.Discard())
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestNewSQLiteRepository_Migrates(t *testing.T) {
	repo := newTestRepo(t)
	if repo.SchemaVersion() != 2 {
		t.Fatalf("schema version = %d, want 2", repo.SchemaVersion())
	}
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	at, err := repo.LastSnapshotAt(context.Background())
	if err != nil || !at.IsZero() {
		t.Fatalf("LastSnapshotAt on empty store = %v, %v", at, err)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hub.db")
	for i := 0; i < 2; i++ {
		if _, err := RunMigrations(path); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
}

func TestSaveSnapshotRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ref := core.NewDate(2024, 12, 20)
	snap := memory.DemoSnapshot(ref)
	savedAt := time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return savedAt }

	if err := repo.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	// second save must upsert, not duplicate
	if err := repo.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot again: %v", err)
	}

	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != len(snap.Accounts) {
		t.Fatalf("accounts = %d, want %d", len(accounts), len(snap.Accounts))
	}
	if !accounts[3].Archived || !accounts[3].UpdatedAt.Equal(snap.Accounts[3].UpdatedAt) {
		t.Errorf("archived account lost data: %+v", accounts[3])
	}
	if accounts[0].BalanceCents == nil || *accounts[0].BalanceCents != *snap.Accounts[0].BalanceCents {
		t.Errorf("balance = %v", accounts[0].BalanceCents)
	}

	cats, err := repo.ListCategories(ctx)
	if err != nil || len(cats) != len(snap.Categories) {
		t.Fatalf("categories = %d (err=%v)", len(cats), err)
	}
	if cats[0].ParentID != nil || cats[5].ParentID == nil || *cats[5].ParentID != 1 {
		t.Errorf("parent ids not preserved: %+v / %+v", cats[0], cats[5])
	}

	cards, err := repo.ListCreditCards(ctx)
	if err != nil || len(cards) != len(snap.CreditCards) {
		t.Fatalf("cards = %d (err=%v)", len(cards), err)
	}
	if cards[1].LimitCents != 1000000 || cards[1].ClosingDay != 5 {
		t.Errorf("card = %+v", cards[1])
	}

	period := core.Period{Start: core.NewDate(2024, 7, 1), End: core.NewDate(2024, 12, 31)}
	txs, err := repo.ListTransactions(ctx, source.TransactionQuery{Period: period})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != len(snap.Transactions) {
		t.Fatalf("transactions = %d, want %d", len(txs), len(snap.Transactions))
	}
	want := map[int64]core.Transaction{}
	for _, tr := range snap.Transactions {
		want[tr.ID] = tr
	}
	for _, got := range txs {
		w := want[got.ID]
		if got.AmountCents != w.AmountCents || got.Date.String() != w.Date.String() || got.Recurring != w.Recurring {
			t.Fatalf("transaction %d = %+v, want %+v", got.ID, got, w)
		}
		if len(got.Tags) != len(w.Tags) {
			t.Fatalf("transaction %d tags = %v, want %v", got.ID, got.Tags, w.Tags)
		}
		if (got.AccountID == nil) != (w.AccountID == nil) || (got.CreditCardID == nil) != (w.CreditCardID == nil) {
			t.Fatalf("transaction %d references differ", got.ID)
		}
	}

	at, err := repo.LastSnapshotAt(ctx)
	if err != nil || !at.Equal(savedAt) {
		t.Fatalf("LastSnapshotAt = %v, %v", at, err)
	}
}

func TestListTransactionsFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ref := core.NewDate(2024, 12, 20)
	if err := repo.SaveSnapshot(ctx, memory.DemoSnapshot(ref)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	month := core.MonthPeriod(ref)
	demo := memory.NewDemo(ref)

	queries := []source.TransactionQuery{
		{Period: month},
		{Period: month, AccountID: core.Int64Ptr(1)},
		{Period: month, CategoryID: core.Int64Ptr(10)},
		{Period: core.Period{Start: core.NewDate(2024, 9, 1), End: core.NewDate(2024, 9, 30)}, AccountID: core.Int64Ptr(4)},
	}
	for _, q := range queries {
		got, err := repo.ListTransactions(ctx, q)
		if err != nil {
			t.Fatalf("ListTransactions: %v", err)
		}
		want, _ := demo.ListTransactions(ctx, q)
		if len(got) != len(want) {
			t.Errorf("query %+v: got %d, want %d", q, len(got), len(want))
		}
	}
}

func TestListInvoices(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ref := core.NewDate(2024, 12, 20)
	if err := repo.SaveSnapshot(ctx, memory.DemoSnapshot(ref)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	inv, err := repo.ListInvoices(ctx, 1, core.MonthPeriod(ref))
	if err != nil || len(inv) != 1 || inv[0].BalanceCents != 125000 {
		t.Fatalf("invoices = %+v (err=%v)", inv, err)
	}
	if inv[0].StartingDate.String() != "2024-11-16" {
		t.Errorf("starting date = %s", inv[0].StartingDate)
	}
}

func TestListTransactions_InvalidPeriod(t *testing.T) {
	repo := newTestRepo(t)
	p := core.Period{Start: core.NewDate(2024, 5, 2), End: core.NewDate(2024, 5, 1)}
	_, err := repo.ListTransactions(context.Background(), source.TransactionQuery{Period: p})
	if !errors.Is(err, core.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}
