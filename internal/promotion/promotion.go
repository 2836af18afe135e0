// Package promotion decides whether a store promotion applies to a line item and
// computes the resulting discount.
package promotion

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownType is returned when parsing a promotion type that is not supported.
var ErrUnknownType = errors.New("promotion: unknown type")

// Type is the closed set of promotion mechanics.
type Type string

const (
	// PercentOff takes Value percent off the line.
	PercentOff Type = "percent_off"
	// FixedOff takes Value currency units off the line.
	FixedOff Type = "fixed_off"
	// MultiBuy prices every MinQuantity units at Value ("3 for $5").
	MultiBuy Type = "multi_buy"
	// Bundle is MultiBuy gated on a companion product being in the cart.
	Bundle Type = "bundle"
)

// Types lists every supported promotion type.
func Types() []Type {
	return []Type{PercentOff, FixedOff, MultiBuy, Bundle}
}

// ParseType normalises and validates a promotion type name.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// Valid reports whether t is one of the supported types.
func (t Type) Valid() bool {
	switch t {
	case PercentOff, FixedOff, MultiBuy, Bundle:
		return true
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler for JSON and YAML decoding.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Status tells whether a promotion has been confirmed in store.
type Status string

const (
	Verified   Status = "verified"
	Unverified Status = "unverified"
)

// Promotion is a promotion definition as fetched for a product/store pair. It is
// never mutated by the calculator.
type Promotion struct {
	ID                       string           `json:"id" yaml:"id"`
	Type                     Type             `json:"type" yaml:"type"`
	Value                    decimal.Decimal  `json:"value" yaml:"value"`
	MinQuantity              *decimal.Decimal `json:"minQuantity,omitempty" yaml:"min_quantity,omitempty"`
	RequiresCoupon           string           `json:"requiresCoupon,omitempty" yaml:"requires_coupon,omitempty"`
	RequiresLoyaltyCard      bool             `json:"requiresLoyaltyCard,omitempty" yaml:"requires_loyalty_card,omitempty"`
	RequiresCompanionProduct bool             `json:"requiresCompanionProduct,omitempty" yaml:"requires_companion_product,omitempty"`
	Status                   Status           `json:"status" yaml:"status"`
	Description              string           `json:"description,omitempty" yaml:"description,omitempty"`
}

// Context carries what the shopper supplied when the promotion is evaluated.
type Context struct {
	CouponCode          string
	HasLoyaltyCard      bool
	HasCompanionProduct bool
}

// Result is the outcome of applying one promotion to one line.
type Result struct {
	IsApplicable        bool
	NotApplicableReason string
	OriginalPrice       decimal.Decimal
	DiscountAmount      decimal.Decimal
	DiscountPercent     int64
	FinalPrice          decimal.Decimal
}
