// Package sheets reads transactions and categories from a Google
// Spreadsheet with a "Transactions" and a "Categories" tab.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"insighthub/internal/core"
	"insighthub/internal/log"
	"insighthub/internal/source"
)

var _ source.Source = (*Client)(nil)

// Config selects the spreadsheet and the service account used to read it.
type Config struct {
	SpreadsheetID     string
	TransactionsSheet string
	CategoriesSheet   string
	CredentialsJSON   string
	CredentialsFile   string
	Logger            *log.Logger
}

// readFunc returns the cell values of an A1 range.
type readFunc func(ctx context.Context, rng string) ([][]interface{}, error)

type Client struct {
	read              readFunc
	ping              func(ctx context.Context) error
	transactionsSheet string
	categoriesSheet   string
	logger            *log.Logger
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	id := cfg.SpreadsheetID
	read := func(ctx context.Context, rng string) ([][]interface{}, error) {
		resp, err := svc.Spreadsheets.Values.Get(id, rng).
			ValueRenderOption("UNFORMATTED_VALUE").
			DateTimeRenderOption("FORMATTED_STRING").
			Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rng, err)
		}
		return resp.Values, nil
	}
	ping := func(ctx context.Context) error {
		_, err := svc.Spreadsheets.Get(id).Fields("spreadsheetId").Context(ctx).Do()
		return err
	}
	return newClient(read, ping, cfg), nil
}

func newClient(read readFunc, ping func(context.Context) error, cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	txSheet := cfg.TransactionsSheet
	if txSheet == "" {
		txSheet = "Transactions"
	}
	catSheet := cfg.CategoriesSheet
	if catSheet == "" {
		catSheet = "Categories"
	}
	return &Client{
		read:              read,
		ping:              ping,
		transactionsSheet: txSheet,
		categoriesSheet:   catSheet,
		logger:            logger.WithComponent(log.ComponentSheets),
	}
}

// newSheetsService initializes a read-only Sheets service from service
// account credentials, inline JSON first.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// load reads both tabs and resolves names to ids.
func (c *Client) load(ctx context.Context) (*workbook, error) {
	catRows, err := c.read(ctx, c.categoriesSheet+"!A:E")
	if err != nil {
		return nil, err
	}
	categories, err := parseCategories(catRows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.categoriesSheet, err)
	}
	txRows, err := c.read(ctx, c.transactionsSheet+"!A:F")
	if err != nil {
		return nil, err
	}
	wb, skipped := parseTransactions(txRows, categories)
	for _, s := range skipped {
		c.logger.WarnContext(ctx, "Skipping spreadsheet row", "row", s.Row, log.FieldError, s.Err)
	}
	return wb, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	wb, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return wb.categories, nil
}

// ListAccounts returns one account per distinct name in the Account column.
func (c *Client) ListAccounts(ctx context.Context) ([]core.Account, error) {
	wb, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return wb.accounts, nil
}

func (c *Client) ListCreditCards(ctx context.Context) ([]core.CreditCard, error) {
	wb, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return wb.cards, nil
}

func (c *Client) ListTransactions(ctx context.Context, q source.TransactionQuery) ([]core.Transaction, error) {
	wb, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, t := range wb.transactions {
		if q.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListInvoices always returns nothing: spreadsheets carry no invoices.
func (c *Client) ListInvoices(context.Context, int64, core.Period) ([]core.CreditCardInvoice, error) {
	return nil, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c.ping == nil {
		return nil
	}
	if err := c.ping(ctx); err != nil {
		return fmt.Errorf("sheets ping: %w", err)
	}
	return nil
}
