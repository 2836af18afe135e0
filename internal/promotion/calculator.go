package promotion

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricecompare-api/internal/money"
)

// Reasons reported when a promotion does not apply.
const (
	ReasonLoyaltyCard      = "requires a loyalty card"
	ReasonCompanionProduct = "requires a companion product in the cart"
	ReasonUnsupportedType  = "unsupported promotion type"
	ReasonInvalidValue     = "promotion value is out of range"
	ReasonMissingBundle    = "promotion has no bundle size"
)

// Calculate applies p to quantity units of unitPrice. Eligibility is checked in a
// fixed order (coupon, loyalty card, companion product, minimum quantity) and the
// first unmet condition is reported. It never panics and never returns an error.
func Calculate(p Promotion, unitPrice, quantity decimal.Decimal, ctx Context) Result {
	original := unitPrice.Mul(quantity)

	if reason := eligibility(p, quantity, ctx); reason != "" {
		return notApplicable(original, reason)
	}

	var discount decimal.Decimal
	switch p.Type {
	case PercentOff:
		if p.Value.IsNegative() || p.Value.GreaterThan(money.Hundred()) {
			return notApplicable(original, ReasonInvalidValue)
		}
		discount = original.Mul(p.Value).Div(money.Hundred())
	case FixedOff:
		if p.Value.IsNegative() {
			return notApplicable(original, ReasonInvalidValue)
		}
		discount = decimal.Min(p.Value, original)
	case MultiBuy, Bundle:
		if p.Type == Bundle && !ctx.HasCompanionProduct {
			return notApplicable(original, ReasonCompanionProduct)
		}
		if p.MinQuantity == nil || !p.MinQuantity.IsPositive() {
			return notApplicable(original, ReasonMissingBundle)
		}
		if p.Value.IsNegative() {
			return notApplicable(original, ReasonInvalidValue)
		}
		discount = original.Sub(bundlePrice(*p.MinQuantity, p.Value, unitPrice, quantity))
	default:
		return notApplicable(original, ReasonUnsupportedType)
	}

	discount = money.Clamp(discount, decimal.Zero, money.NonNegative(original))
	return Result{
		IsApplicable:    true,
		OriginalPrice:   original,
		DiscountAmount:  discount,
		DiscountPercent: discountPercent(discount, original),
		FinalPrice:      money.NonNegative(original.Sub(discount)),
	}
}

func eligibility(p Promotion, quantity decimal.Decimal, ctx Context) string {
	if p.RequiresCoupon != "" && ctx.CouponCode != p.RequiresCoupon {
		return fmt.Sprintf("requires coupon code %s", p.RequiresCoupon)
	}
	if p.RequiresLoyaltyCard && !ctx.HasLoyaltyCard {
		return ReasonLoyaltyCard
	}
	if p.RequiresCompanionProduct && !ctx.HasCompanionProduct {
		return ReasonCompanionProduct
	}
	if p.MinQuantity != nil && quantity.LessThan(*p.MinQuantity) {
		return fmt.Sprintf("requires a minimum quantity of %s", p.MinQuantity.String())
	}
	return ""
}

// bundlePrice charges complete bundles at the bundle total and the remainder at the
// regular unit price.
func bundlePrice(size, total, unitPrice, quantity decimal.Decimal) decimal.Decimal {
	bundles := quantity.Div(size).Floor()
	remainder := quantity.Sub(bundles.Mul(size))
	return bundles.Mul(total).Add(remainder.Mul(unitPrice))
}

// discountPercent rounds half up to a whole percent.
func discountPercent(discount, original decimal.Decimal) int64 {
	if !original.IsPositive() {
		return 0
	}
	return discount.Mul(money.Hundred()).Div(original).Round(0).IntPart()
}

func notApplicable(original decimal.Decimal, reason string) Result {
	return Result{
		IsApplicable:        false,
		NotApplicableReason: reason,
		OriginalPrice:       original,
		DiscountAmount:      decimal.Zero,
		DiscountPercent:     0,
		FinalPrice:          original,
	}
}
