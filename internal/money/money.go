// Package money holds the fixed-point helpers shared by the pricing engine.
package money

import "github.com/shopspring/decimal"

// Places is the number of decimal places monetary outputs are rounded to.
const Places int32 = 2

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Percent converts a percentage such as 7 into the fraction 0.07.
func Percent(p decimal.Decimal) decimal.Decimal {
	return p.Div(hundred)
}

// Hundred returns the decimal constant 100.
func Hundred() decimal.Decimal {
	return hundred
}

// Clamp returns d bounded to [lo, hi].
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// NonNegative returns zero for negative inputs.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FromFloat converts a JSON number into a decimal, discarding float noise beyond
// ten decimal places.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(10)
}

// Float converts d for JSON encoding.
func Float(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
