// Package organizze reads accounts, categories, credit cards, invoices and
// transactions from the Organizze REST v2 API.
package organizze

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"insighthub/internal/core"
	"insighthub/internal/log"
	"insighthub/internal/source"
)

const (
	DefaultBaseURL   = "https://api.organizze.com.br/rest/v2"
	DefaultUserAgent = "Organizze Insight Hub (contact@example.com)"

	// balanceWindow is how far back account balances are summed.
	balanceWindow = 30 * 24 * time.Hour
	// defaultConcurrency bounds the per-account and per-card balance calls.
	defaultConcurrency = 4
)

var _ source.Source = (*Client)(nil)

// Client talks to the Organizze API with HTTP basic auth. It only reads.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	auth        string
	userAgent   string
	concurrency int
	logger      *log.Logger
	now         func() time.Time
}

// ClientConfig configures the Organizze client.
type ClientConfig struct {
	Email string
	// Token is the API token from the Organizze settings page. Never logged.
	Token     string
	BaseURL   string
	UserAgent string

	// HTTPClient is an optional custom HTTP client (for testing).
	HTTPClient *http.Client
	Timeout    time.Duration

	// Concurrency bounds balance lookups; defaults to 4.
	Concurrency int
	Logger      *log.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Email == "" || cfg.Token == "" {
		return nil, ErrNotConfigured
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClientWithPooling(cfg.Timeout)
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		auth:        "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.Email+":"+cfg.Token)),
		userAgent:   ua,
		concurrency: concurrency,
		logger:      logger.WithComponent(log.ComponentOrganizze),
		now:         time.Now,
	}, nil
}

// newHTTPClientWithPooling keeps connections to the API warm across the
// burst of balance lookups a dashboard load triggers.
func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// SetBaseURL sets the base URL for the client (for testing).
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// SetClock replaces the time source used for balance windows.
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	return doGet[User](ctx, c, "/users/"+strconv.FormatInt(id, 10))
}

// ListAccounts returns every account with BalanceCents set to the sum of
// its transactions over the last 30 days. Accounts whose lookup fails keep
// a nil balance.
func (c *Client) ListAccounts(ctx context.Context) ([]core.Account, error) {
	raw, err := doGet[[]apiAccount](ctx, c, "/accounts")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	accounts := make([]core.Account, 0, len(*raw))
	for _, a := range *raw {
		acc, err := a.toCore()
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", a.ID, err)
		}
		accounts = append(accounts, acc)
	}

	since := core.DateOf(c.now().Add(-balanceWindow))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range accounts {
		acc := &accounts[i]
		g.Go(func() error {
			params := url.Values{}
			params.Set("start_date", since.String())
			params.Set("account_id", strconv.FormatInt(acc.ID, 10))
			txs, err := c.listTransactions(gctx, params)
			if err != nil {
				c.logger.WarnContext(gctx, "Could not fetch account balance",
					log.FieldAccountID, acc.ID, log.FieldError, err)
				return nil
			}
			var sum int64
			for _, t := range txs {
				if t.AccountID != nil && *t.AccountID == acc.ID {
					sum += t.AmountCents
				}
			}
			acc.BalanceCents = core.Int64Ptr(sum)
			return nil
		})
	}
	_ = g.Wait()
	return accounts, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	raw, err := doGet[[]apiCategory](ctx, c, "/categories")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(*raw))
	for _, cat := range *raw {
		out = append(out, cat.toCore())
	}
	return out, nil
}

// ListCreditCards returns every card with CurrentBalanceCents taken from the
// first invoice of the current month, or zero when there is none.
func (c *Client) ListCreditCards(ctx context.Context) ([]core.CreditCard, error) {
	raw, err := doGet[[]apiCreditCard](ctx, c, "/credit_cards")
	if err != nil {
		return nil, fmt.Errorf("list credit cards: %w", err)
	}
	cards := make([]core.CreditCard, 0, len(*raw))
	for _, rc := range *raw {
		card, err := rc.toCore()
		if err != nil {
			return nil, fmt.Errorf("credit card %d: %w", rc.ID, err)
		}
		cards = append(cards, card)
	}

	month := core.MonthPeriod(core.DateOf(c.now()))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range cards {
		card := &cards[i]
		g.Go(func() error {
			invoices, err := c.ListInvoices(gctx, card.ID, month)
			if err != nil {
				c.logger.WarnContext(gctx, "Could not fetch credit card balance",
					log.FieldCardID, card.ID, log.FieldError, err)
				return nil
			}
			var balance int64
			if len(invoices) > 0 {
				balance = invoices[0].BalanceCents
			}
			card.CurrentBalanceCents = core.Int64Ptr(balance)
			return nil
		})
	}
	_ = g.Wait()
	return cards, nil
}

func (c *Client) ListInvoices(ctx context.Context, cardID int64, period core.Period) ([]core.CreditCardInvoice, error) {
	params := url.Values{}
	params.Set("start_date", period.Start.String())
	params.Set("end_date", period.End.String())
	path := fmt.Sprintf("/credit_cards/%d/invoices?%s", cardID, params.Encode())

	raw, err := doGet[[]apiInvoice](ctx, c, path)
	if err != nil {
		return nil, fmt.Errorf("list invoices for card %d: %w", cardID, err)
	}
	out := make([]core.CreditCardInvoice, 0, len(*raw))
	for _, inv := range *raw {
		out = append(out, inv.toCore())
	}
	return out, nil
}

func (c *Client) ListTransactions(ctx context.Context, q source.TransactionQuery) ([]core.Transaction, error) {
	if err := q.Period.Validate(); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("start_date", q.Period.Start.String())
	params.Set("end_date", q.Period.End.String())
	if q.AccountID != nil {
		params.Set("account_id", strconv.FormatInt(*q.AccountID, 10))
	}
	if q.CategoryID != nil {
		params.Set("category_id", strconv.FormatInt(*q.CategoryID, 10))
	}
	txs, err := c.listTransactions(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (c *Client) listTransactions(ctx context.Context, params url.Values) ([]core.Transaction, error) {
	raw, err := doGet[[]apiTransaction](ctx, c, "/transactions?"+params.Encode())
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(*raw))
	for _, t := range *raw {
		out = append(out, t.toCore())
	}
	return out, nil
}

// Ping checks credentials and reachability with a single /accounts call.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := doGet[[]apiAccount](ctx, c, "/accounts"); err != nil {
		return fmt.Errorf("organizze ping: %w", err)
	}
	return nil
}

// doGet performs a GET request and decodes the response.
func doGet[T any](ctx context.Context, c *Client, path string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "Organizze request",
		log.FieldEndpoint, endpointOf(path),
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp, endpointOf(path))
	}

	var result T
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// parseError turns an error response into an *APIError, falling back to a
// generic message when the body is not the usual {"error": "..."} shape.
func parseError(resp *http.Response, endpoint string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		apiErr.Message = eb.Error
	} else {
		apiErr.Message = fmt.Sprintf("HTTP Error: %d", resp.StatusCode)
	}
	return apiErr
}

func endpointOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
