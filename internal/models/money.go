package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var centsFactor = decimal.NewFromInt(100)

// ParsePriceCents converts a decimal price string from a form ("12.34")
// into integer cents. Fractions finer than a cent and non-positive prices
// are rejected; all later arithmetic stays in int64 cents.
func ParsePriceCents(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	cents := d.Mul(centsFactor)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("price %q has sub-cent precision", s)
	}
	if !cents.IsPositive() {
		return 0, fmt.Errorf("price %q must be positive", s)
	}
	return cents.IntPart(), nil
}

// FormatCents renders integer cents as a decimal string ("12.34") for
// display and invoices.
func FormatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(centsFactor).StringFixed(2)
}
