package promotion

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func qty(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func requireDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func TestCalculatePercentOff(t *testing.T) {
	p := Promotion{ID: "p1", Type: PercentOff, Value: dec("20")}
	res := Calculate(p, dec("2.50"), dec("4"), Context{})

	require.True(t, res.IsApplicable)
	require.Empty(t, res.NotApplicableReason)
	requireDec(t, "10", res.OriginalPrice)
	requireDec(t, "2", res.DiscountAmount)
	requireDec(t, "8", res.FinalPrice)
	require.Equal(t, int64(20), res.DiscountPercent)
}

func TestCalculateCouponRequired(t *testing.T) {
	p := Promotion{Type: PercentOff, Value: dec("20"), RequiresCoupon: "SAVE20"}

	res := Calculate(p, dec("5"), dec("2"), Context{})
	require.False(t, res.IsApplicable)
	require.Contains(t, res.NotApplicableReason, "coupon")
	require.Contains(t, res.NotApplicableReason, "SAVE20")
	requireDec(t, "0", res.DiscountAmount)
	require.True(t, res.FinalPrice.Equal(res.OriginalPrice))
	require.Equal(t, int64(0), res.DiscountPercent)

	res = Calculate(p, dec("5"), dec("2"), Context{CouponCode: "save20"})
	require.False(t, res.IsApplicable, "coupon match is case-sensitive")

	res = Calculate(p, dec("5"), dec("2"), Context{CouponCode: "SAVE20"})
	require.True(t, res.IsApplicable)
	requireDec(t, "8", res.FinalPrice)
}

func TestCalculateFixedOffClampsToOriginal(t *testing.T) {
	p := Promotion{Type: FixedOff, Value: dec("50")}
	res := Calculate(p, dec("3.99"), dec("2"), Context{})

	require.True(t, res.IsApplicable)
	requireDec(t, "7.98", res.DiscountAmount)
	requireDec(t, "0", res.FinalPrice)
	require.Equal(t, int64(100), res.DiscountPercent)
}

func TestCalculateMultiBuy(t *testing.T) {
	p := Promotion{Type: MultiBuy, Value: dec("5"), MinQuantity: qty("3")}
	res := Calculate(p, dec("2"), dec("7"), Context{})

	require.True(t, res.IsApplicable)
	requireDec(t, "14", res.OriginalPrice)
	requireDec(t, "12", res.FinalPrice)
	requireDec(t, "2", res.DiscountAmount)
	require.Equal(t, int64(14), res.DiscountPercent)
}

func TestCalculateMultiBuyBelowMinimum(t *testing.T) {
	p := Promotion{Type: MultiBuy, Value: dec("5"), MinQuantity: qty("3")}
	res := Calculate(p, dec("2"), dec("2"), Context{})

	require.False(t, res.IsApplicable)
	require.Equal(t, "requires a minimum quantity of 3", res.NotApplicableReason)
	requireDec(t, "4", res.FinalPrice)
}

func TestCalculateMultiBuyNeverRaisesPrice(t *testing.T) {
	p := Promotion{Type: MultiBuy, Value: dec("10"), MinQuantity: qty("3")}
	res := Calculate(p, dec("2"), dec("3"), Context{})

	require.True(t, res.IsApplicable)
	requireDec(t, "0", res.DiscountAmount)
	requireDec(t, "6", res.FinalPrice)
}

func TestCalculateMultiBuyWithoutBundleSize(t *testing.T) {
	p := Promotion{Type: MultiBuy, Value: dec("5")}
	res := Calculate(p, dec("2"), dec("6"), Context{})

	require.False(t, res.IsApplicable)
	require.Equal(t, ReasonMissingBundle, res.NotApplicableReason)
}

func TestCalculateBundleNeedsCompanion(t *testing.T) {
	p := Promotion{Type: Bundle, Value: dec("9"), MinQuantity: qty("2")}

	res := Calculate(p, dec("6"), dec("2"), Context{})
	require.False(t, res.IsApplicable)
	require.Equal(t, ReasonCompanionProduct, res.NotApplicableReason)

	res = Calculate(p, dec("6"), dec("2"), Context{HasCompanionProduct: true})
	require.True(t, res.IsApplicable)
	requireDec(t, "9", res.FinalPrice)
	requireDec(t, "3", res.DiscountAmount)
	require.Equal(t, int64(25), res.DiscountPercent)
}

func TestCalculateReportsFirstFailingCheck(t *testing.T) {
	p := Promotion{
		Type:                     PercentOff,
		Value:                    dec("10"),
		MinQuantity:              qty("5"),
		RequiresCoupon:           "CARD",
		RequiresLoyaltyCard:      true,
		RequiresCompanionProduct: true,
	}
	cases := []struct {
		name string
		ctx  Context
		qty  string
		want string
	}{
		{name: "coupon first", ctx: Context{}, qty: "1", want: "requires coupon code CARD"},
		{name: "loyalty second", ctx: Context{CouponCode: "CARD"}, qty: "1", want: ReasonLoyaltyCard},
		{name: "companion third", ctx: Context{CouponCode: "CARD", HasLoyaltyCard: true}, qty: "1", want: ReasonCompanionProduct},
		{name: "quantity last", ctx: Context{CouponCode: "CARD", HasLoyaltyCard: true, HasCompanionProduct: true}, qty: "1", want: "requires a minimum quantity of 5"},
		{name: "all met", ctx: Context{CouponCode: "CARD", HasLoyaltyCard: true, HasCompanionProduct: true}, qty: "5", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Calculate(p, dec("1"), dec(tc.qty), tc.ctx)
			require.Equal(t, tc.want, res.NotApplicableReason)
			require.Equal(t, tc.want == "", res.IsApplicable)
		})
	}
}

func TestCalculateDegradesOnBadDefinitions(t *testing.T) {
	cases := []struct {
		name string
		p    Promotion
		want string
	}{
		{name: "unknown type", p: Promotion{Type: Type("buy_one_get_one"), Value: dec("1")}, want: ReasonUnsupportedType},
		{name: "percent above 100", p: Promotion{Type: PercentOff, Value: dec("120")}, want: ReasonInvalidValue},
		{name: "negative fixed", p: Promotion{Type: FixedOff, Value: dec("-1")}, want: ReasonInvalidValue},
		{name: "zero bundle size", p: Promotion{Type: MultiBuy, Value: dec("1"), MinQuantity: qty("0")}, want: ReasonMissingBundle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Calculate(tc.p, dec("3"), dec("2"), Context{})
			require.False(t, res.IsApplicable)
			require.Equal(t, tc.want, res.NotApplicableReason)
			requireDec(t, "6", res.FinalPrice)
			requireDec(t, "0", res.DiscountAmount)
		})
	}
}

func TestCalculateZeroPrice(t *testing.T) {
	res := Calculate(Promotion{Type: PercentOff, Value: dec("50")}, decimal.Zero, dec("3"), Context{})
	require.True(t, res.IsApplicable)
	require.Equal(t, int64(0), res.DiscountPercent)
	requireDec(t, "0", res.FinalPrice)
}

func TestDiscountPercentRoundsHalfUp(t *testing.T) {
	// 1/8 = 12.5% rounds to 13.
	res := Calculate(Promotion{Type: FixedOff, Value: dec("1")}, dec("8"), dec("1"), Context{})
	require.Equal(t, int64(13), res.DiscountPercent)
}

func TestParseType(t *testing.T) {
	got, err := ParseType(" Multi_Buy ")
	require.NoError(t, err)
	require.Equal(t, MultiBuy, got)

	_, err = ParseType("bogo")
	require.ErrorIs(t, err, ErrUnknownType)

	var p Promotion
	err = json.Unmarshal([]byte(`{"id":"x","type":"percent_off","value":12.5,"minQuantity":2,"status":"verified"}`), &p)
	require.NoError(t, err)
	require.Equal(t, PercentOff, p.Type)
	requireDec(t, "12.5", p.Value)
	requireDec(t, "2", *p.MinQuantity)

	err = json.Unmarshal([]byte(`{"type":"mystery"}`), &p)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "unknown type"))
}

func TestCalculateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	typeGen := gen.OneConstOf(PercentOff, FixedOff, MultiBuy, Bundle)

	properties.Property("calculation is idempotent", prop.ForAll(
		func(kind Type, valueCents, priceCents, units, bundle int64, companion bool) bool {
			p := Promotion{Type: kind, Value: decimal.New(valueCents, -2), MinQuantity: qty(decimal.NewFromInt(bundle).String())}
			ctx := Context{HasCompanionProduct: companion}
			a := Calculate(p, decimal.New(priceCents, -2), decimal.NewFromInt(units), ctx)
			b := Calculate(p, decimal.New(priceCents, -2), decimal.NewFromInt(units), ctx)
			return a.IsApplicable == b.IsApplicable &&
				a.NotApplicableReason == b.NotApplicableReason &&
				a.DiscountAmount.Equal(b.DiscountAmount) &&
				a.FinalPrice.Equal(b.FinalPrice) &&
				a.DiscountPercent == b.DiscountPercent
		},
		typeGen,
		gen.Int64Range(0, 10_000),
		gen.Int64Range(0, 100_000),
		gen.Int64Range(1, 50),
		gen.Int64Range(1, 6),
		gen.Bool(),
	))

	properties.Property("final price stays within [0, original] and adds up", prop.ForAll(
		func(kind Type, valueCents, priceCents, units int64) bool {
			p := Promotion{Type: kind, Value: decimal.New(valueCents, -2), MinQuantity: qty("2")}
			res := Calculate(p, decimal.New(priceCents, -2), decimal.NewFromInt(units), Context{HasCompanionProduct: true})
			if res.FinalPrice.IsNegative() || res.FinalPrice.GreaterThan(res.OriginalPrice) {
				return false
			}
			return res.FinalPrice.Add(res.DiscountAmount).Equal(res.OriginalPrice)
		},
		typeGen,
		gen.Int64Range(0, 10_000),
		gen.Int64Range(0, 100_000),
		gen.Int64Range(2, 50),
	))

	properties.Property("fixed_off above the line total zeroes the line", prop.ForAll(
		func(priceCents, units, extraCents int64) bool {
			price := decimal.New(priceCents, -2)
			original := price.Mul(decimal.NewFromInt(units))
			p := Promotion{Type: FixedOff, Value: original.Add(decimal.New(extraCents, -2))}
			res := Calculate(p, price, decimal.NewFromInt(units), Context{})
			return res.DiscountAmount.Equal(original) && res.FinalPrice.IsZero()
		},
		gen.Int64Range(0, 100_000),
		gen.Int64Range(1, 50),
		gen.Int64Range(1, 10_000),
	))

	properties.TestingRun(t)
}
