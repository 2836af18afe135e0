package tax

import (
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

func TestBasePrice(t *testing.T) {
	cases := []struct {
		name     string
		price    string
		rate     string
		includes bool
		want     string
	}{
		{name: "inclusive 7%", price: "10", rate: "7", includes: true, want: "9.35"},
		{name: "exclusive", price: "10", rate: "7", includes: false, want: "10"},
		{name: "zero rate inclusive", price: "4.99", rate: "0", includes: true, want: "4.99"},
		{name: "inclusive 15%", price: "11.50", rate: "15", includes: true, want: "10"},
		{name: "zero price", price: "0", rate: "10", includes: true, want: "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BasePrice(dec(tc.price), dec(tc.rate), tc.includes)
			require.True(t, got.Round(2).Equal(dec(tc.want)), "got %s", got)
		})
	}
}

func TestBasePriceNeverExceedsInclusivePrice(t *testing.T) {
	got := BasePrice(dec("3.21"), dec("10"), true)
	require.True(t, got.LessThan(dec("3.21")))
}

func TestAmount(t *testing.T) {
	base := BasePrice(dec("10"), dec("7"), true)
	require.Equal(t, "1.31", Amount(base, dec("7"), dec("2")).StringFixed(2))

	require.True(t, Amount(dec("123.45"), dec("7.25"), dec("1")).Equal(dec("8.95")))
	require.True(t, Amount(dec("99.99"), dec("20"), dec("1")).Equal(dec("20")))
	require.True(t, Amount(dec("100"), dec("8.875"), dec("1")).Equal(dec("8.88")))
}

func TestAmountZeroRate(t *testing.T) {
	got := Amount(dec("57.13"), decimal.Zero, dec("3"))
	require.True(t, got.IsZero())
}

func TestAmountRoundsOnlyAtReturn(t *testing.T) {
	// Rounding the base to cents first drifts by two cents over 100 units.
	base := dec("1").Div(dec("3"))
	require.Equal(t, "2.33", Amount(base, dec("7"), dec("100")).StringFixed(2))
	require.Equal(t, "2.31", Amount(base.Round(2), dec("7"), dec("100")).StringFixed(2))
}

func TestBasePriceRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	cent := dec("0.01")
	properties.Property("base * (1 + rate/100) is within a cent of the inclusive price", prop.ForAll(
		func(priceCents int64, rateBps int64) bool {
			price := decimal.New(priceCents, -2)
			rate := decimal.New(rateBps, -2)
			base := BasePrice(price, rate, true)
			back := base.Mul(decimal.NewFromInt(1).Add(rate.Div(decimal.NewFromInt(100))))
			return back.Sub(price).Abs().LessThanOrEqual(cent)
		},
		gen.Int64Range(0, 10_000_000),
		gen.Int64Range(0, 3_000),
	))

	properties.Property("zero rate is the identity and owes no tax", prop.ForAll(
		func(priceCents int64, qty int64, includes bool) bool {
			price := decimal.New(priceCents, -2)
			return BasePrice(price, decimal.Zero, includes).Equal(price) &&
				Amount(price, decimal.Zero, decimal.NewFromInt(qty)).IsZero()
		},
		gen.Int64Range(0, 10_000_000),
		gen.Int64Range(1, 500),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
