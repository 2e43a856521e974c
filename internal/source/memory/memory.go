package memory

import (
	"context"
	"sync"
	"time"

	"insighthub/internal/core"
	"insighthub/internal/source"
)

var _ source.Source = (*Store)(nil)
var _ source.SnapshotWriter = (*Store)(nil)

// Store is an in-memory source. It backs the demo mode and doubles as a
// fake in tests.
type Store struct {
	mu   sync.Mutex
	snap source.Snapshot
}

func New(s source.Snapshot) *Store {
	return &Store{snap: s}
}

// SaveSnapshot replaces the stored data.
func (s *Store) SaveSnapshot(_ context.Context, snap source.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	return nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Account(nil), s.snap.Accounts...), nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.snap.Categories...), nil
}

func (s *Store) ListCreditCards(_ context.Context) ([]core.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.CreditCard(nil), s.snap.CreditCards...), nil
}

// ListTransactions returns the matching transactions in stored order.
func (s *Store) ListTransactions(ctx context.Context, q source.TransactionQuery) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.snap.Transactions {
		if q.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) ListInvoices(_ context.Context, cardID int64, period core.Period) ([]core.CreditCardInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.CreditCardInvoice
	for _, inv := range s.snap.Invoices {
		if inv.CreditCardID == cardID && period.Contains(inv.Date) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// NewDemo returns a store seeded with six months of activity ending in the
// month of ref.
func NewDemo(ref core.Date) *Store {
	return New(DemoSnapshot(ref))
}

// DemoSnapshot builds the demo fixture relative to ref. The same ref always
// yields the same data.
func DemoSnapshot(ref core.Date) source.Snapshot {
	ts := func(d core.Date) time.Time { return d.Add(10 * time.Hour) }
	monthStart := core.MonthPeriod(ref).Start
	created := ts(monthStart.AddMonths(-18))
	updated := ts(monthStart)
	archivedAccountAt := monthStart.AddMonths(-3).AddDate(0, 0, 14).Add(10 * time.Hour)
	archivedCardAt := monthStart.AddMonths(-4).AddDate(0, 0, 19).Add(10 * time.Hour)

	snap := source.Snapshot{
		Accounts: []core.Account{
			{ID: 1, Name: "Conta Corrente Banco do Brasil", Description: "Conta principal para movimentações do dia a dia", CreatedAt: created, UpdatedAt: updated, Default: true, Type: core.AccountChecking, BalanceCents: core.Int64Ptr(1250000)},
			{ID: 2, Name: "Poupança Caixa", Description: "Reserva de emergência", CreatedAt: created, UpdatedAt: updated, Type: core.AccountSavings, BalanceCents: core.Int64Ptr(5000000)},
			{ID: 3, Name: "Conta Corrente Nubank", Description: "Conta digital para investimentos", CreatedAt: created, UpdatedAt: updated, Type: core.AccountChecking, BalanceCents: core.Int64Ptr(780000)},
			{ID: 4, Name: "Conta Antiga Bradesco", Description: "Conta que foi encerrada", Archived: true, CreatedAt: created, UpdatedAt: archivedAccountAt, Type: core.AccountChecking, BalanceCents: core.Int64Ptr(0)},
		},
		CreditCards: []core.CreditCard{
			{ID: 1, Name: "Cartão Nubank", Description: "Cartão sem anuidade", CreatedAt: created, UpdatedAt: updated, Default: true, LimitCents: 500000, ClosingDay: 15, DueDay: 10, CurrentBalanceCents: core.Int64Ptr(125000)},
			{ID: 2, Name: "Cartão Itaú", Description: "Cartão premium com benefícios", CreatedAt: created, UpdatedAt: updated, LimitCents: 1000000, ClosingDay: 5, DueDay: 25, CurrentBalanceCents: core.Int64Ptr(340000)},
			{ID: 3, Name: "Cartão Antigo Bradesco", Description: "Cartão cancelado", Archived: true, CreatedAt: created, UpdatedAt: archivedCardAt, LimitCents: 200000, ClosingDay: 20, DueDay: 15, CurrentBalanceCents: core.Int64Ptr(0)},
		},
		Categories: []core.Category{
			{ID: 1, Name: "Alimentação", Color: "#FF6B6B", IsDefault: true, Type: core.CategoryExpense},
			{ID: 2, Name: "Transporte", Color: "#4ECDC4", IsDefault: true, Type: core.CategoryExpense},
			{ID: 3, Name: "Moradia", Color: "#45B7D1", IsDefault: true, Type: core.CategoryExpense},
			{ID: 4, Name: "Salário", Color: "#96CEB4", IsDefault: true, Type: core.CategoryRevenue},
			{ID: 5, Name: "Investimentos", Color: "#FECA57", IsDefault: true, Type: core.CategoryRevenue},
			{ID: 6, Name: "Supermercado", Color: "#FF6B6B", ParentID: core.Int64Ptr(1), Type: core.CategoryExpense},
			{ID: 7, Name: "Restaurante", Color: "#FF6B6B", ParentID: core.Int64Ptr(1), Type: core.CategoryExpense},
			{ID: 8, Name: "Combustível", Color: "#4ECDC4", ParentID: core.Int64Ptr(2), Type: core.CategoryExpense},
			{ID: 9, Name: "Uber/Taxi", Color: "#4ECDC4", ParentID: core.Int64Ptr(2), Type: core.CategoryExpense},
			{ID: 10, Name: "Aluguel", Color: "#45B7D1", ParentID: core.Int64Ptr(3), Type: core.CategoryExpense},
		},
	}

	var id int64
	add := func(day core.Date, desc string, cents int64, category int64, account, card *int64, recurring bool, tags ...string) {
		id++
		snap.Transactions = append(snap.Transactions, core.Transaction{
			ID:                id,
			Description:       desc,
			Date:              day,
			Paid:              !day.After(ref.Time),
			AmountCents:       cents,
			TotalInstallments: 1,
			Installment:       1,
			Recurring:         recurring,
			AccountID:         account,
			CategoryID:        category,
			CreditCardID:      card,
			Tags:              tags,
		})
	}
	checking, savings, closed := core.Int64Ptr(1), core.Int64Ptr(2), core.Int64Ptr(4)
	nubank, itau, oldCard := core.Int64Ptr(1), core.Int64Ptr(2), core.Int64Ptr(3)

	for i := -5; i <= 0; i++ {
		m := monthStart.AddMonths(i)
		day := func(d int) core.Date { return core.Date{Time: m.AddDate(0, 0, d-1)} }
		step := int64(i + 5)

		add(day(1), "Salário - Empresa XYZ", 650000, 4, checking, nil, true, "trabalho", "salário")
		add(day(3), "Supermercado Extra", -(42000 + step*1500), 6, nil, nubank, false, "alimentação", "casa")
		add(day(5), "Posto Shell - Combustível", -8500, 8, checking, nil, false, "combustível", "carro")
		add(day(10), "Aluguel Apartamento", -180000, 10, checking, nil, true, "moradia", "fixo")
		add(day(15), "Restaurante Italiano", -(9000 + step*1000), 7, nil, itau, false, "restaurante", "lazer")
		add(day(18), "Uber - Centro", -3500, 9, nil, nubank, false)
		add(day(22), "Padaria do Bairro", -2800, 1, checking, nil, false)
		if (i+6)%3 == 0 {
			add(day(20), "Dividendos Ações", 25000, 5, savings, nil, false, "investimento", "dividendos")
		}
		switch i {
		case -4:
			// before and after the card was cancelled
			add(day(8), "Livraria Cultura", -6400, 1, nil, oldCard, false)
			add(day(25), "Assinatura Streaming", -3990, 1, nil, oldCard, true)
		case -3:
			add(day(12), "Tarifa Bancária", -2990, 1, closed, nil, true)
			add(day(20), "Transferência Final", -15000, 1, closed, nil, false)
		case 0:
			add(day(12), "Revisão do Carro", -95000, 8, nil, itau, false, "carro")
		}
	}

	snap.Invoices = []core.CreditCardInvoice{
		{ID: 1, Date: core.Date{Time: monthStart.AddDate(0, 0, 14)}, StartingDate: core.Date{Time: monthStart.AddMonths(-1).AddDate(0, 0, 15)}, ClosingDate: core.Date{Time: monthStart.AddDate(0, 0, 14)}, AmountCents: 125000, BalanceCents: 125000, CreditCardID: 1},
		{ID: 2, Date: core.Date{Time: monthStart.AddDate(0, 0, 4)}, StartingDate: core.Date{Time: monthStart.AddMonths(-1).AddDate(0, 0, 5)}, ClosingDate: core.Date{Time: monthStart.AddDate(0, 0, 4)}, AmountCents: 340000, BalanceCents: 340000, CreditCardID: 2},
	}
	return snap
}
