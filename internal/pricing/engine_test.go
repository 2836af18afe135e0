package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricecompare-api/internal/promotion"
	"github.com/noah-isme/pricecompare-api/internal/tax"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func TestResolveInclusivePrice(t *testing.T) {
	line := Resolve(LineItem{
		UnitPrice:        dec("10.00"),
		Quantity:         dec("2"),
		TaxCode:          tax.General,
		TaxRate:          dec("7"),
		PriceIncludesTax: true,
	}, nil, promotion.Context{})

	requireDec(t, "9.35", line.BasePrice.Round(2))
	requireDec(t, "1.31", line.TaxAmount)
	requireDec(t, "20", line.Subtotal)
	requireDec(t, "20", line.OriginalPrice)
	requireDec(t, "0", line.DiscountAmount)
	requireDec(t, "18.69", line.BasePriceTotal.Round(2))
	require.Nil(t, line.Promotion)
	require.Equal(t, tax.General, line.TaxCode)
}

func TestResolveExclusivePriceAddsTax(t *testing.T) {
	line := Resolve(LineItem{
		UnitPrice: dec("4.50"),
		Quantity:  dec("3"),
		TaxCode:   tax.Alcohol,
		TaxRate:   dec("10"),
	}, nil, promotion.Context{})

	requireDec(t, "4.5", line.BasePrice)
	requireDec(t, "1.35", line.TaxAmount)
	requireDec(t, "14.85", line.Subtotal)
	requireDec(t, "13.5", line.BasePriceTotal)
}

func TestResolveAppliesDiscountBeforeTax(t *testing.T) {
	p := &promotion.Promotion{ID: "ten", Type: promotion.PercentOff, Value: dec("10")}
	line := Resolve(LineItem{
		UnitPrice: dec("10"),
		Quantity:  dec("1"),
		TaxRate:   dec("7"),
	}, p, promotion.Context{})

	require.NotNil(t, line.Promotion)
	require.True(t, line.Promotion.IsApplicable)
	requireDec(t, "9", line.BasePrice)
	requireDec(t, "0.63", line.TaxAmount)
	requireDec(t, "9.63", line.Subtotal)
	requireDec(t, "1", line.DiscountAmount)
	requireDec(t, "10", line.OriginalPrice)
}

func TestResolveMultiBuyInclusive(t *testing.T) {
	min := dec("3")
	p := &promotion.Promotion{Type: promotion.MultiBuy, Value: dec("5"), MinQuantity: &min}
	line := Resolve(LineItem{
		UnitPrice:        dec("2"),
		Quantity:         dec("7"),
		TaxRate:          dec("7"),
		PriceIncludesTax: true,
	}, p, promotion.Context{})

	requireDec(t, "14", line.OriginalPrice)
	requireDec(t, "2", line.DiscountAmount)
	requireDec(t, "12", line.Subtotal)
	requireDec(t, "0.79", line.TaxAmount)
	requireDec(t, "11.21", line.BasePriceTotal.Round(2))
}

func TestResolveInapplicablePromotionKeepsPrice(t *testing.T) {
	p := &promotion.Promotion{Type: promotion.PercentOff, Value: dec("20"), RequiresCoupon: "SAVE20"}
	line := Resolve(LineItem{UnitPrice: dec("5"), Quantity: dec("2"), TaxRate: decimal.Zero, TaxCode: tax.Exempt}, p, promotion.Context{})

	require.NotNil(t, line.Promotion)
	require.False(t, line.Promotion.IsApplicable)
	requireDec(t, "0", line.DiscountAmount)
	requireDec(t, "10", line.Subtotal)
	requireDec(t, "0", line.TaxAmount)
	requireDec(t, "5", line.BasePrice)
}

func TestResolveFreeLine(t *testing.T) {
	p := &promotion.Promotion{Type: promotion.FixedOff, Value: dec("100")}
	line := Resolve(LineItem{UnitPrice: dec("3"), Quantity: dec("2"), TaxRate: dec("7"), PriceIncludesTax: true}, p, promotion.Context{})

	requireDec(t, "0", line.Subtotal)
	requireDec(t, "0", line.TaxAmount)
	requireDec(t, "0", line.BasePriceTotal)
	requireDec(t, "6", line.DiscountAmount)
}
