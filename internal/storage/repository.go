// Package storage keeps offline snapshots of Organizze data in SQLite so
// the dashboard can run without network access.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"insighthub/internal/core"
	"insighthub/internal/log"
	"insighthub/internal/source"
)

var (
	_ source.Source         = (*SQLiteRepository)(nil)
	_ source.SnapshotWriter = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	logger  *log.Logger
	version uint
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentStorage)
	logger.Info("SQLite snapshot store ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, logger: logger, version: version, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SchemaVersion is the migration version applied at open time.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.version
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveSnapshot upserts every record of s in a single transaction and logs
// the run in snapshot_runs.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, s source.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	for _, a := range s.Accounts {
		_, err := tx.ExecContext(ctx, upsertAccount,
			a.ID, a.Name, a.Description, a.Archived, formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
			a.Default, string(a.Type), nullable(a.BalanceCents))
		if err != nil {
			return fmt.Errorf("save account %d: %w", a.ID, err)
		}
	}
	for _, c := range s.Categories {
		_, err := tx.ExecContext(ctx, upsertCategory, c.ID, c.Name, c.Color, nullable(c.ParentID), c.IsDefault, string(c.Type))
		if err != nil {
			return fmt.Errorf("save category %d: %w", c.ID, err)
		}
	}
	for _, c := range s.CreditCards {
		_, err := tx.ExecContext(ctx, upsertCreditCard,
			c.ID, c.Name, c.Description, c.Archived, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
			c.Default, c.LimitCents, c.ClosingDay, c.DueDay, nullable(c.CurrentBalanceCents))
		if err != nil {
			return fmt.Errorf("save credit card %d: %w", c.ID, err)
		}
	}
	for _, t := range s.Transactions {
		tags, err := json.Marshal(nonNil(t.Tags))
		if err != nil {
			return fmt.Errorf("encode tags of transaction %d: %w", t.ID, err)
		}
		_, err = tx.ExecContext(ctx, upsertTransaction,
			t.ID, t.Description, t.Date.String(), t.Paid, t.AmountCents, t.TotalInstallments, t.Installment,
			t.Recurring, nullable(t.AccountID), t.CategoryID, nullable(t.CreditCardID), nullable(t.CreditCardInvoiceID), t.Notes, string(tags))
		if err != nil {
			return fmt.Errorf("save transaction %d: %w", t.ID, err)
		}
	}
	for _, inv := range s.Invoices {
		_, err := tx.ExecContext(ctx, upsertInvoice,
			inv.ID, inv.Date.String(), formatDate(inv.StartingDate), formatDate(inv.ClosingDate), inv.AmountCents,
			inv.PaymentAmountCents, inv.BalanceCents, inv.PreviousBalanceCents, inv.CreditCardID)
		if err != nil {
			return fmt.Errorf("save invoice %d: %w", inv.ID, err)
		}
	}
	_, err = tx.ExecContext(ctx, insertSnapshotRun, formatTime(r.now()),
		len(s.Accounts), len(s.Categories), len(s.CreditCards), len(s.Transactions), len(s.Invoices))
	if err != nil {
		return fmt.Errorf("record snapshot run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	r.logger.InfoContext(ctx, "Snapshot saved",
		log.FieldOperation, log.OpSnapshot,
		log.FieldTxCount, len(s.Transactions),
		"accounts", len(s.Accounts),
		"credit_cards", len(s.CreditCards))
	return nil
}

// LastSnapshotAt returns when the newest snapshot was saved, or the zero
// time when none exists.
func (r *SQLiteRepository) LastSnapshotAt(ctx context.Context) (time.Time, error) {
	var saved sql.NullString
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(saved_at) FROM snapshot_runs`).Scan(&saved); err != nil {
		return time.Time{}, fmt.Errorf("last snapshot: %w", err)
	}
	return parseTime(saved.String)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, selectAccounts)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var (
			a                core.Account
			created, updated string
			typ              string
			balance          sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Archived, &created, &updated, &a.Default, &typ, &balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if a.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if a.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		a.Type = core.AccountType(typ)
		a.BalanceCents = nullInt(balance)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, selectCategories)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c      core.Category
			typ    string
			parent sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &parent, &c.IsDefault, &typ); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.CategoryType(typ)
		c.ParentID = nullInt(parent)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListCreditCards(ctx context.Context) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx, selectCreditCards)
	if err != nil {
		return nil, fmt.Errorf("list credit cards: %w", err)
	}
	defer rows.Close()

	var out []core.CreditCard
	for rows.Next() {
		var (
			c                core.CreditCard
			created, updated string
			balance          sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Archived, &created, &updated, &c.Default,
			&c.LimitCents, &c.ClosingDay, &c.DueDay, &balance); err != nil {
			return nil, fmt.Errorf("scan credit card: %w", err)
		}
		if c.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if c.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		c.CurrentBalanceCents = nullInt(balance)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, q source.TransactionQuery) ([]core.Transaction, error) {
	if err := q.Period.Validate(); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, selectTransactions,
		q.Period.Start.String(), q.Period.End.String(),
		nullable(q.AccountID), nullable(q.AccountID), nullable(q.CategoryID), nullable(q.CategoryID))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t                      core.Transaction
			date, tags             string
			account, card, invoice sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Description, &date, &t.Paid, &t.AmountCents, &t.TotalInstallments,
			&t.Installment, &t.Recurring, &account, &t.CategoryID, &card, &invoice, &t.Notes, &tags); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %d date: %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
			return nil, fmt.Errorf("transaction %d tags: %w", t.ID, err)
		}
		if len(t.Tags) == 0 {
			t.Tags = nil
		}
		t.AccountID = nullInt(account)
		t.CreditCardID = nullInt(card)
		t.CreditCardInvoiceID = nullInt(invoice)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListInvoices(ctx context.Context, cardID int64, period core.Period) ([]core.CreditCardInvoice, error) {
	rows, err := r.db.QueryContext(ctx, selectInvoices, cardID, period.Start.String(), period.End.String())
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []core.CreditCardInvoice
	for rows.Next() {
		var (
			inv                     core.CreditCardInvoice
			date, starting, closing string
		)
		if err := rows.Scan(&inv.ID, &date, &starting, &closing, &inv.AmountCents, &inv.PaymentAmountCents,
			&inv.BalanceCents, &inv.PreviousBalanceCents, &inv.CreditCardID); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		if inv.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("invoice %d date: %w", inv.ID, err)
		}
		inv.StartingDate, _ = core.ParseDate(starting)
		inv.ClosingDate, _ = core.ParseDate(closing)
		out = append(out, inv)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func formatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return core.Int64Ptr(n.Int64)
}

// nullable maps a nil pointer to SQL NULL.
func nullable(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
