package tax

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricecompare-api/internal/money"
)

// BasePrice strips tax from an inclusive price. Exclusive prices and zero rates are
// returned unchanged. The result is not rounded.
func BasePrice(effectivePrice, ratePercent decimal.Decimal, priceIncludesTax bool) decimal.Decimal {
	if !priceIncludesTax || ratePercent.IsZero() {
		return effectivePrice
	}
	return effectivePrice.Div(decimal.NewFromInt(1).Add(money.Percent(ratePercent)))
}

// Amount computes the tax owed on quantity units of basePrice, rounded to cents.
// Inputs must already be validated as non-negative.
func Amount(basePrice, ratePercent, quantity decimal.Decimal) decimal.Decimal {
	if ratePercent.IsZero() {
		return decimal.Zero
	}
	return money.Round2(basePrice.Mul(ratePercent).Mul(quantity).Div(money.Hundred()))
}
