// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals: they are stored with full precision and
// only rounded to cents when displayed.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered amount to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an
// optional leading currency sign and a leading minus for refunds. Thousands
// separators are not supported.
//
// Examples:
//
//	ParseAmount("12.34")   -> 12.34
//	ParseAmount("$12,34")  -> 12.34
//	ParseAmount("-5")      -> -5
//	ParseAmount("1.2.3")   -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = strings.TrimSpace(s[1:])
	}
	s = strings.TrimPrefix(s, "$")
	if s == "" || strings.ContainsAny(s, "+-eE ") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// FormatAmount renders an amount with exactly two decimals, the way it is
// displayed and matched by free-text search.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatCurrency is FormatAmount with a dollar sign, used by table output.
func FormatCurrency(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
