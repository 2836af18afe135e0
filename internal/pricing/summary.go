package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricecompare-api/internal/money"
	"github.com/noah-isme/pricecompare-api/internal/promotion"
)

// TaxBucket accumulates the tax owed at one rate.
type TaxBucket struct {
	TaxAmount decimal.Decimal
	ItemCount int
}

// Summary aggregates a session. Breakdown is keyed by the rate as a plain number
// ("7", "7.5", "0"), so codes sharing a percentage share a bucket.
type Summary struct {
	SubtotalBeforeTax decimal.Decimal
	TotalTax          decimal.Decimal
	GrandTotal        decimal.Decimal
	Breakdown         map[string]TaxBucket
}

// PricedItem is a line item together with the promotion selected for it.
type PricedItem struct {
	Item      LineItem
	Promotion *promotion.Promotion
	Context   promotion.Context
}

// RateKey renders a percentage as a breakdown key.
func RateKey(rate decimal.Decimal) string {
	return rate.String()
}

// Summarize reduces resolved lines into one summary. Rounding happens once, after
// the reduction. An empty input yields zeros and an empty breakdown.
func Summarize(lines []Line) Summary {
	subtotal := decimal.Zero
	breakdown := make(map[string]TaxBucket)
	for _, l := range lines {
		subtotal = subtotal.Add(l.BasePriceTotal)
		key := RateKey(l.TaxRate)
		bucket := breakdown[key]
		bucket.TaxAmount = bucket.TaxAmount.Add(l.TaxAmount)
		bucket.ItemCount++
		breakdown[key] = bucket
	}

	totalTax := decimal.Zero
	for key, bucket := range breakdown {
		bucket.TaxAmount = money.Round2(bucket.TaxAmount)
		breakdown[key] = bucket
		totalTax = totalTax.Add(bucket.TaxAmount)
	}

	subtotal = money.Round2(subtotal)
	totalTax = money.Round2(totalTax)
	return Summary{
		SubtotalBeforeTax: subtotal,
		TotalTax:          totalTax,
		GrandTotal:        money.Round2(subtotal.Add(totalTax)),
		Breakdown:         breakdown,
	}
}

// ResolveAll resolves every item in order.
func ResolveAll(items []PricedItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Resolve(it.Item, it.Promotion, it.Context))
	}
	return lines
}

// SummarizeItems resolves and summarizes in one pass, as the session view does
// whenever its item list changes.
func SummarizeItems(items []PricedItem) ([]Line, Summary) {
	lines := ResolveAll(items)
	return lines, Summarize(lines)
}
