// Package format renders cents, percentages and KPI values for display in
// the caller's locale. Amounts stay integer cents everywhere else.
package format

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"insighthub/internal/analysis"
	"insighthub/internal/core"
)

var symbols = map[currency.Unit]string{
	currency.BRL: "R$",
	currency.USD: "US$",
	currency.EUR: "€",
}

// Formatter formats values for one locale and currency.
type Formatter struct {
	tag     language.Tag
	unit    currency.Unit
	printer *message.Printer
	title   cases.Caser
}

// New returns a formatter for the closest supported locale to locale.
// Organizze books are kept in reais, so BRL is the default unit.
func New(locale string) *Formatter {
	return NewWithCurrency(locale, currency.BRL)
}

func NewWithCurrency(locale string, unit currency.Unit) *Formatter {
	tag := analysis.MatchLocale(locale)
	return &Formatter{
		tag:     tag,
		unit:    unit,
		printer: message.NewPrinter(tag),
		title:   cases.Title(tag),
	}
}

func (f *Formatter) Locale() language.Tag { return f.tag }

func (f *Formatter) symbol() string {
	if s, ok := symbols[f.unit]; ok {
		return s
	}
	return f.unit.String()
}

// Currency renders cents with grouping and two decimals, e.g. "R$ 1.234,50"
// in pt-BR and "R$ 1,234.50" in English.
func (f *Formatter) Currency(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	v, _ := core.CentsToDecimal(cents).Float64()
	return sign + f.symbol() + " " + f.printer.Sprint(number.Decimal(v, number.Scale(2)))
}

// Percent renders a 0-100 value with at most one decimal, e.g. "12,5%".
func (f *Formatter) Percent(v float64) string {
	return f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(1))) + "%"
}

// Count renders an integer with locale grouping.
func (f *Formatter) Count(n int64) string {
	return f.printer.Sprint(number.Decimal(n))
}

// KPI renders a KPI value according to its unit. Currency KPIs carry cents.
func (f *Formatter) KPI(k analysis.KPI) string {
	switch k.Unit {
	case analysis.UnitCurrency:
		return f.Currency(int64(math.Round(k.Value)))
	case analysis.UnitPercentage:
		return f.Percent(k.Value)
	default:
		return f.Count(int64(k.Value))
	}
}

// Label title-cases a lower-case identifier such as an account type.
func (f *Formatter) Label(s string) string {
	return f.title.String(strings.ReplaceAll(s, "_", " "))
}

// Summary is the display form of a financial summary.
type Summary struct {
	TotalRevenues      string `json:"total_revenues"`
	TotalExpenses      string `json:"total_expenses"`
	Balance            string `json:"balance"`
	AccountsBalance    string `json:"accounts_balance"`
	CreditCardsBalance string `json:"credit_cards_balance"`
}

func (f *Formatter) Summary(s core.FinancialSummary) Summary {
	return Summary{
		TotalRevenues:      f.Currency(s.TotalRevenues),
		TotalExpenses:      f.Currency(s.TotalExpenses),
		Balance:            f.Currency(s.Balance),
		AccountsBalance:    f.Currency(s.AccountsBalance),
		CreditCardsBalance: f.Currency(s.CreditCardsBalance),
	}
}
