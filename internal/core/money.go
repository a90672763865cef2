// Package core holds the ledger's domain entities and the snapshot structure
// shared by the seeding and reporting paths.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a monetary amount from an export or request field.
// It accepts both dot (1234.50) and comma (1234,50) decimal separators.
// Negative amounts are rejected; an empty string parses as zero, which is
// how the exports represent "not paid yet".
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Message: "invalid amount: " + s}
	}
	if d.IsNegative() {
		return decimal.Zero, &ValidationError{Message: "amount must not be negative: " + s}
	}
	return d, nil
}

// Percentage returns part/total expressed as a percentage, rounded to two
// decimal places. A zero total yields exactly zero, never a division error:
// an empty ledger has a delinquency rate of 0 by contract.
func Percentage(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}
