// Package money holds the fixed-precision rounding rules used for every stored or compared amount.
package money

import (
	"github.com/shopspring/decimal"
)

// Cent is the smallest representable monetary step.
var Cent = decimal.New(1, -2)

// RoundToCent rounds half away from zero to two decimal places.
func RoundToCent(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// WithinTolerance reports whether a and b differ by at most one cent.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Cent)
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// ClampNonNegative returns zero for negative values.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
