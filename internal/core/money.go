// Package core provides money parsing and handling utilities.
//
// Amounts travel through the system as signed integer cents. This file
// converts between that representation and user-facing decimal strings.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseDecimalToCents converts a signed decimal string to cents with half-up
// rounding on the third decimal place.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted, and a
// leading sign is kept so expenses can be written as negatives. Thousands
// separators are allowed when both separators appear ("1.234,56" or
// "1,234.56"); the right-most one is taken as the decimal mark.
//
// Examples:
//
//	ParseDecimalToCents("12.34")    -> 1234, nil
//	ParseDecimalToCents("-12,34")   -> -1234, nil
//	ParseDecimalToCents("12.345")   -> 1235, nil (rounds half up)
//	ParseDecimalToCents("1.234,56") -> 123456, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = normalizeDecimal(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0)
	if !cents.IsInteger() || cents.Abs().GreaterThan(decimal.NewFromInt(maxCents)) {
		return 0, ErrInvalidAmount
	}
	if cents.IsZero() {
		return 0, ErrZeroAmount
	}
	return cents.IntPart(), nil
}

// CentsToDecimal returns the amount in currency units.
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatCents renders cents as a plain decimal string with two places.
func FormatCents(cents int64) string {
	return CentsToDecimal(cents).StringFixed(2)
}

const maxCents = (1<<63 - 1) / 100

func normalizeDecimal(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}
	return s
}
