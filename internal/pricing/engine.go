// Package pricing resolves shopping-list lines into tax and discount figures and
// reduces a session's lines into one summary.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricecompare-api/internal/promotion"
	"github.com/noah-isme/pricecompare-api/internal/tax"
)

// LineItem is one entry of a shopping session as entered by the user. TaxRate is
// captured when the item is added so later catalog changes do not rewrite history.
type LineItem struct {
	UnitPrice        decimal.Decimal
	Quantity         decimal.Decimal
	TaxCode          tax.Code
	TaxRate          decimal.Decimal
	PriceIncludesTax bool
}

// Line is a resolved line item. Amounts are unrounded except TaxAmount, which is
// rounded to cents by tax.Amount.
type Line struct {
	TaxCode        tax.Code
	TaxRate        decimal.Decimal
	Quantity       decimal.Decimal
	BasePrice      decimal.Decimal
	TaxAmount      decimal.Decimal
	Subtotal       decimal.Decimal
	BasePriceTotal decimal.Decimal
	OriginalPrice  decimal.Decimal
	DiscountAmount decimal.Decimal
	Promotion      *promotion.Result
}

// Resolve applies the promotion (if any) and then splits the effective price into
// base price and tax. Discounts reduce the price tax is computed on. Inputs are
// expected to be validated by the caller: non-negative price, positive quantity.
func Resolve(item LineItem, promo *promotion.Promotion, ctx promotion.Context) Line {
	original := item.UnitPrice.Mul(item.Quantity)
	final := original
	discount := decimal.Zero

	var applied *promotion.Result
	if promo != nil {
		res := promotion.Calculate(*promo, item.UnitPrice, item.Quantity, ctx)
		applied = &res
		if res.IsApplicable {
			final = res.FinalPrice
			discount = res.DiscountAmount
		}
	}

	effectiveUnit := item.UnitPrice
	if item.Quantity.IsPositive() {
		effectiveUnit = final.Div(item.Quantity)
	}

	base := tax.BasePrice(effectiveUnit, item.TaxRate, item.PriceIncludesTax)
	taxAmount := tax.Amount(base, item.TaxRate, item.Quantity)

	subtotal := final
	if !item.PriceIncludesTax {
		subtotal = final.Add(taxAmount)
	}

	return Line{
		TaxCode:        item.TaxCode,
		TaxRate:        item.TaxRate,
		Quantity:       item.Quantity,
		BasePrice:      base,
		TaxAmount:      taxAmount,
		Subtotal:       subtotal,
		BasePriceTotal: base.Mul(item.Quantity),
		OriginalPrice:  original,
		DiscountAmount: discount,
		Promotion:      applied,
	}
}
