package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/pricecompare-api/internal/pricing"
	"github.com/noah-isme/pricecompare-api/internal/promotion"
	"github.com/noah-isme/pricecompare-api/internal/tax"
)

type sessionFile struct {
	Currency string        `yaml:"currency"`
	Locale   string        `yaml:"locale"`
	Items    []sessionItem `yaml:"items"`
}

type sessionItem struct {
	Name             string               `yaml:"name"`
	UnitPrice        decimal.Decimal      `yaml:"unit_price"`
	Quantity         decimal.Decimal      `yaml:"quantity"`
	TaxCode          string               `yaml:"tax_code"`
	Category         string               `yaml:"category"`
	TaxRate          *decimal.Decimal     `yaml:"tax_rate"`
	PriceIncludesTax bool                 `yaml:"price_includes_tax"`
	Promotion        *promotion.Promotion `yaml:"promotion"`
	Context          struct {
		CouponCode          string `yaml:"coupon_code"`
		HasLoyaltyCard      bool   `yaml:"has_loyalty_card"`
		HasCompanionProduct bool   `yaml:"has_companion_product"`
	} `yaml:"context"`
}

// session is a decoded session file ready for the engine.
type session struct {
	Currency string
	Locale   string
	Names    []string
	Items    []pricing.PricedItem
}

// parseSession decodes a session file and resolves each item's rate. Rates come
// from, in order: an explicit tax_rate, tax_code, category, the catalog default.
func parseSession(data []byte, table *tax.Table) (session, error) {
	var file sessionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return session{}, fmt.Errorf("decode session: %w", err)
	}
	out := session{
		Currency: file.Currency,
		Locale:   file.Locale,
		Names:    make([]string, 0, len(file.Items)),
		Items:    make([]pricing.PricedItem, 0, len(file.Items)),
	}
	for i, it := range file.Items {
		if it.UnitPrice.IsNegative() {
			return session{}, fmt.Errorf("item %d: unit_price must not be negative", i)
		}
		if !it.Quantity.IsPositive() {
			return session{}, fmt.Errorf("item %d: quantity must be positive", i)
		}
		rate, err := itemRate(it, table)
		if err != nil {
			return session{}, fmt.Errorf("item %d: %w", i, err)
		}
		name := strings.TrimSpace(it.Name)
		if name == "" {
			name = fmt.Sprintf("item %d", i+1)
		}
		out.Names = append(out.Names, name)
		out.Items = append(out.Items, pricing.PricedItem{
			Item: pricing.LineItem{
				UnitPrice:        it.UnitPrice,
				Quantity:         it.Quantity,
				TaxCode:          rate.Code,
				TaxRate:          rate.Percent,
				PriceIncludesTax: it.PriceIncludesTax,
			},
			Promotion: it.Promotion,
			Context: promotion.Context{
				CouponCode:          it.Context.CouponCode,
				HasLoyaltyCard:      it.Context.HasLoyaltyCard,
				HasCompanionProduct: it.Context.HasCompanionProduct,
			},
		})
	}
	return out, nil
}

func itemRate(it sessionItem, table *tax.Table) (tax.Rate, error) {
	switch {
	case it.TaxRate != nil:
		if it.TaxRate.IsNegative() {
			return tax.Rate{}, fmt.Errorf("tax_rate must not be negative")
		}
		code := tax.Code(it.TaxCode)
		if code == "" {
			code = "custom"
		}
		return tax.Rate{Code: code, Percent: *it.TaxRate}, nil
	case it.TaxCode != "":
		rate, ok := table.Lookup(tax.Code(it.TaxCode))
		if !ok {
			return tax.Rate{}, fmt.Errorf("unknown tax code %q", it.TaxCode)
		}
		return rate, nil
	case it.Category != "":
		return table.ForCategory(it.Category), nil
	default:
		return table.Default(), nil
	}
}
