package core

import (
	"errors"
	"fmt"
	"time"
)

const (
	CategoryExpense CategoryType = "expense"
	CategoryRevenue CategoryType = "revenue"
)

const (
	AccountChecking AccountType = "checking"
	AccountSavings  AccountType = "savings"
	AccountOther    AccountType = "other"
)

type (
	CategoryType string
	AccountType  string

	// Transaction is a single movement on an account or credit card.
	// AmountCents is positive for revenues and negative for expenses.
	Transaction struct {
		ID                  int64    `json:"id"`
		Description         string   `json:"description"`
		Date                Date     `json:"date"`
		Paid                bool     `json:"paid"`
		AmountCents         int64    `json:"amount_cents"`
		TotalInstallments   int      `json:"total_installments"`
		Installment         int      `json:"installment"`
		Recurring           bool     `json:"recurring"`
		AccountID           *int64   `json:"account_id"`
		CategoryID          int64    `json:"category_id"`
		CreditCardID        *int64   `json:"credit_card_id"`
		CreditCardInvoiceID *int64   `json:"credit_card_invoice_id"`
		Notes               string   `json:"notes,omitempty"`
		Tags                []string `json:"tags,omitempty"`
	}

	Category struct {
		ID        int64        `json:"id"`
		Name      string       `json:"name"`
		Color     string       `json:"color"`
		ParentID  *int64       `json:"parent_id"`
		IsDefault bool         `json:"is_default"`
		Type      CategoryType `json:"type"`
	}

	Account struct {
		ID           int64       `json:"id"`
		Name         string      `json:"name"`
		Description  string      `json:"description,omitempty"`
		Archived     bool        `json:"archived"`
		CreatedAt    time.Time   `json:"created_at"`
		UpdatedAt    time.Time   `json:"updated_at"`
		Default      bool        `json:"default"`
		Type         AccountType `json:"type"`
		BalanceCents *int64      `json:"balance_cents,omitempty"`
	}

	CreditCard struct {
		ID                  int64     `json:"id"`
		Name                string    `json:"name"`
		Description         string    `json:"description,omitempty"`
		Archived            bool      `json:"archived"`
		CreatedAt           time.Time `json:"created_at"`
		UpdatedAt           time.Time `json:"updated_at"`
		Default             bool      `json:"default"`
		LimitCents          int64     `json:"limit_cents"`
		ClosingDay          int       `json:"closing_day"`
		DueDay              int       `json:"due_day"`
		CurrentBalanceCents *int64    `json:"current_balance_cents,omitempty"`
	}

	CreditCardInvoice struct {
		ID                   int64 `json:"id"`
		Date                 Date  `json:"date"`
		StartingDate         Date  `json:"starting_date"`
		ClosingDate          Date  `json:"closing_date"`
		AmountCents          int64 `json:"amount_cents"`
		PaymentAmountCents   int64 `json:"payment_amount_cents"`
		BalanceCents         int64 `json:"balance_cents"`
		PreviousBalanceCents int64 `json:"previous_balance_cents"`
		CreditCardID         int64 `json:"credit_card_id"`
	}
)

var (
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrMissingCategory = errors.New("missing category reference")
	ErrZeroAmount      = errors.New("amount cannot be zero")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidPeriod   = errors.New("period end is before start")
)

// ValidationError reports which record and field failed validation.
type ValidationError struct {
	Record string
	ID     int64
	Field  string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s: %v", e.Record, e.ID, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsExpense reports whether the transaction moves money out.
func (t Transaction) IsExpense() bool {
	return t.AmountCents < 0
}

// IsRevenue reports whether the transaction moves money in.
func (t Transaction) IsRevenue() bool {
	return t.AmountCents > 0
}

// Magnitude returns the absolute amount in cents.
func (t Transaction) Magnitude() int64 {
	if t.AmountCents < 0 {
		return -t.AmountCents
	}
	return t.AmountCents
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return &ValidationError{Record: "transaction", ID: t.ID, Field: "date", Err: err}
	}
	if t.CategoryID == 0 {
		return &ValidationError{Record: "transaction", ID: t.ID, Field: "category_id", Err: ErrMissingCategory}
	}
	return nil
}

func (c Category) Validate() error {
	if c.Name == "" {
		return &ValidationError{Record: "category", ID: c.ID, Field: "name", Err: ErrEmptyName}
	}
	return nil
}

// ValidateTransactions checks every transaction and returns all failures joined.
func ValidateTransactions(txs []Transaction) error {
	var errs []error
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CategoryIndex maps category ids to categories for lookups.
func CategoryIndex(categories []Category) map[int64]Category {
	idx := make(map[int64]Category, len(categories))
	for _, c := range categories {
		idx[c.ID] = c
	}
	return idx
}

// Int64Ptr is a helper for optional foreign keys.
func Int64Ptr(v int64) *int64 {
	return &v
}
