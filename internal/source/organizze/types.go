package organizze

import (
	"encoding/json"
	"fmt"
	"time"

	"insighthub/internal/core"
)

// User is the account owner returned by /users/{id}.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Wire shapes. Organizze sends nullable strings and RFC 3339 timestamps;
// they are normalised into core types by the to* helpers below.
type (
	apiAccount struct {
		ID          int64   `json:"id"`
		Name        string  `json:"name"`
		Description *string `json:"description"`
		Archived    bool    `json:"archived"`
		CreatedAt   string  `json:"created_at"`
		UpdatedAt   string  `json:"updated_at"`
		Default     bool    `json:"default"`
		Type        string  `json:"type"`
	}

	apiCategory struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		Color     string `json:"color"`
		ParentID  *int64 `json:"parent_id"`
		IsDefault bool   `json:"is_default"`
		Type      string `json:"type"`
	}

	apiCreditCard struct {
		ID          int64   `json:"id"`
		Name        string  `json:"name"`
		Description *string `json:"description"`
		Archived    bool    `json:"archived"`
		CreatedAt   string  `json:"created_at"`
		UpdatedAt   string  `json:"updated_at"`
		Default     bool    `json:"default"`
		Limit       *int64  `json:"limit"`
		LimitCents  *int64  `json:"limit_cents"`
		ClosingDay  int     `json:"closing_day"`
		DueDay      int     `json:"due_day"`
	}

	apiTransaction struct {
		ID                  int64     `json:"id"`
		Description         string    `json:"description"`
		Date                core.Date `json:"date"`
		Paid                bool      `json:"paid"`
		AmountCents         int64     `json:"amount_cents"`
		TotalInstallments   int       `json:"total_installments"`
		Installment         int       `json:"installment"`
		Recurring           bool      `json:"recurring"`
		AccountID           *int64    `json:"account_id"`
		CategoryID          int64     `json:"category_id"`
		ContactID           *int64    `json:"contact_id"`
		CreditCardID        *int64    `json:"credit_card_id"`
		CreditCardInvoiceID *int64    `json:"credit_card_invoice_id"`
		Notes               *string   `json:"notes"`
		Tags                []apiTag  `json:"tags"`
	}

	apiInvoice struct {
		ID                   int64     `json:"id"`
		Date                 core.Date `json:"date"`
		StartingDate         core.Date `json:"starting_date"`
		ClosingDate          core.Date `json:"closing_date"`
		AmountCents          int64     `json:"amount_cents"`
		PaymentAmountCents   int64     `json:"payment_amount_cents"`
		BalanceCents         int64     `json:"balance_cents"`
		PreviousBalanceCents int64     `json:"previous_balance_cents"`
		CreditCardID         int64     `json:"credit_card_id"`
	}

	errorBody struct {
		Error string `json:"error"`
	}
)

// apiTag accepts both the plain string form and the {"name": ...} form.
type apiTag string

func (t *apiTag) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*t = apiTag(obj.Name)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = apiTag(s)
	return nil
}

func parseTimestamp(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (a apiAccount) toCore() (core.Account, error) {
	created, err := parseTimestamp("created_at", a.CreatedAt)
	if err != nil {
		return core.Account{}, err
	}
	updated, err := parseTimestamp("updated_at", a.UpdatedAt)
	if err != nil {
		return core.Account{}, err
	}
	typ := core.AccountType(a.Type)
	switch typ {
	case core.AccountChecking, core.AccountSavings:
	default:
		typ = core.AccountOther
	}
	return core.Account{
		ID:          a.ID,
		Name:        a.Name,
		Description: deref(a.Description),
		Archived:    a.Archived,
		CreatedAt:   created,
		UpdatedAt:   updated,
		Default:     a.Default,
		Type:        typ,
	}, nil
}

func (c apiCategory) toCore() core.Category {
	return core.Category{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		ParentID:  c.ParentID,
		IsDefault: c.IsDefault,
		Type:      core.CategoryType(c.Type),
	}
}

func (c apiCreditCard) toCore() (core.CreditCard, error) {
	created, err := parseTimestamp("created_at", c.CreatedAt)
	if err != nil {
		return core.CreditCard{}, err
	}
	updated, err := parseTimestamp("updated_at", c.UpdatedAt)
	if err != nil {
		return core.CreditCard{}, err
	}
	var limit int64
	switch {
	case c.LimitCents != nil:
		limit = *c.LimitCents
	case c.Limit != nil:
		limit = *c.Limit
	}
	return core.CreditCard{
		ID:          c.ID,
		Name:        c.Name,
		Description: deref(c.Description),
		Archived:    c.Archived,
		CreatedAt:   created,
		UpdatedAt:   updated,
		Default:     c.Default,
		LimitCents:  limit,
		ClosingDay:  c.ClosingDay,
		DueDay:      c.DueDay,
	}, nil
}

func (t apiTransaction) toCore() core.Transaction {
	var tags []string
	for _, tag := range t.Tags {
		if tag != "" {
			tags = append(tags, string(tag))
		}
	}
	return core.Transaction{
		ID:                  t.ID,
		Description:         t.Description,
		Date:                t.Date,
		Paid:                t.Paid,
		AmountCents:         t.AmountCents,
		TotalInstallments:   t.TotalInstallments,
		Installment:         t.Installment,
		Recurring:           t.Recurring,
		AccountID:           t.AccountID,
		CategoryID:          t.CategoryID,
		CreditCardID:        t.CreditCardID,
		CreditCardInvoiceID: t.CreditCardInvoiceID,
		Notes:               deref(t.Notes),
		Tags:                tags,
	}
}

func (i apiInvoice) toCore() core.CreditCardInvoice {
	return core.CreditCardInvoice(i)
}
