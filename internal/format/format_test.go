package format

import (
	"testing"

	"golang.org/x/text/currency"

	"insighthub/internal/analysis"
	"insighthub/internal/core"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		locale string
		cents  int64
		want   string
	}{
		{"en", 123450, "R$ 1,234.50"},
		{"pt-BR", 123450, "R$ 1.234,50"},
		{"en", -2500, "-R$ 25.00"},
		{"pt-BR", 7, "R$ 0,07"},
		{"en", 0, "R$ 0.00"},
		{"xx-invalid", 100, "R$ 1.00"},
	}
	for _, tt := range tests {
		t.Run(tt.locale+"/"+tt.want, func(t *testing.T) {
			if got := New(tt.locale).Currency(tt.cents); got != tt.want {
				t.Errorf("Currency(%d) = %q, want %q", tt.cents, got, tt.want)
			}
		})
	}
}

func TestCurrencyUnit(t *testing.T) {
	if got := NewWithCurrency("en", currency.USD).Currency(100); got != "US$ 1.00" {
		t.Errorf("got %q", got)
	}
	if got := NewWithCurrency("en", currency.JPY).Currency(100); got != "JPY 1.00" {
		t.Errorf("got %q", got)
	}
}

func TestPercentAndCount(t *testing.T) {
	en, pt := New("en"), New("pt-BR")
	if got := en.Percent(12.34); got != "12.3%" {
		t.Errorf("en percent = %q", got)
	}
	if got := pt.Percent(12.34); got != "12,3%" {
		t.Errorf("pt percent = %q", got)
	}
	if got := en.Percent(20); got != "20%" {
		t.Errorf("whole percent = %q", got)
	}
	if got := en.Count(12345); got != "12,345" {
		t.Errorf("en count = %q", got)
	}
	if got := pt.Count(12345); got != "12.345" {
		t.Errorf("pt count = %q", got)
	}
}

func TestKPI(t *testing.T) {
	f := New("en")
	tests := []struct {
		kpi  analysis.KPI
		want string
	}{
		{analysis.KPI{Unit: analysis.UnitCurrency, Value: 58333.67}, "R$ 583.34"},
		{analysis.KPI{Unit: analysis.UnitPercentage, Value: 64.9998}, "65%"},
		{analysis.KPI{Unit: analysis.UnitCount, Value: 4}, "4"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kpi.Unit), func(t *testing.T) {
			if got := f.KPI(tt.kpi); got != tt.want {
				t.Errorf("KPI() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLabelAndSummary(t *testing.T) {
	f := New("en")
	if got := f.Label("credit_card"); got != "Credit Card" {
		t.Errorf("Label = %q", got)
	}
	s := f.Summary(core.FinancialSummary{TotalRevenues: 500000, TotalExpenses: 175001, Balance: 324999})
	if s.TotalRevenues != "R$ 5,000.00" || s.TotalExpenses != "R$ 1,750.01" || s.Balance != "R$ 3,249.99" {
		t.Errorf("Summary = %+v", s)
	}
	if f.Locale().String() != "en" {
		t.Errorf("Locale = %s", f.Locale())
	}
}
