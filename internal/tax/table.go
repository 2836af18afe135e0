// Package tax holds the tax-rate catalog and the inclusive/exclusive price arithmetic.
package tax

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	// ErrDuplicateCode is returned when a catalog lists the same code twice.
	ErrDuplicateCode = errors.New("tax: duplicate rate code")
	// ErrNegativeRate is returned when a catalog entry has a negative percentage.
	ErrNegativeRate = errors.New("tax: negative rate")
	// ErrUnknownDefault is returned when the default code is not part of the catalog.
	ErrUnknownDefault = errors.New("tax: default code not in catalog")
	// ErrEmptyCatalog is returned when no rates are supplied.
	ErrEmptyCatalog = errors.New("tax: empty catalog")
)

// Code identifies a tax rate. It is the join key between a line item and its rate.
type Code string

// Built-in codes of the ITBMS catalog.
const (
	General Code = "general"
	Alcohol Code = "alcohol"
	Tobacco Code = "tobacco"
	Exempt  Code = "exempt"
)

// Rate is one catalog entry.
type Rate struct {
	Code    Code            `yaml:"code" json:"code"`
	Percent decimal.Decimal `yaml:"-" json:"-"`
	Label   string          `yaml:"label" json:"label"`
}

// Table is an immutable catalog of tax rates. The zero value is not usable; build
// one with NewTable, ParseTable or DefaultTable.
type Table struct {
	rates      map[Code]Rate
	order      []Code
	def        Code
	categories map[string]Code
}

// NewTable validates the rates and returns a catalog. categories maps a product
// category (case-insensitive) to a rate code; unmapped categories use the default.
func NewTable(rates []Rate, defaultCode Code, categories map[string]Code) (*Table, error) {
	if len(rates) == 0 {
		return nil, ErrEmptyCatalog
	}
	t := &Table{
		rates:      make(map[Code]Rate, len(rates)),
		order:      make([]Code, 0, len(rates)),
		def:        defaultCode,
		categories: make(map[string]Code, len(categories)),
	}
	for _, r := range rates {
		code := Code(strings.TrimSpace(string(r.Code)))
		if code == "" {
			return nil, errors.New("tax: rate code required")
		}
		if _, exists := t.rates[code]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, code)
		}
		if r.Percent.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrNegativeRate, code)
		}
		r.Code = code
		t.rates[code] = r
		t.order = append(t.order, code)
	}
	if _, ok := t.rates[defaultCode]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefault, defaultCode)
	}
	for category, code := range categories {
		if _, ok := t.rates[code]; !ok {
			return nil, fmt.Errorf("tax: category %q maps to unknown code %q", category, code)
		}
		t.categories[normalizeCategory(category)] = code
	}
	return t, nil
}

// DefaultTable returns the built-in Panama ITBMS catalog.
func DefaultTable() *Table {
	t, err := NewTable([]Rate{
		{Code: General, Percent: decimal.NewFromInt(7), Label: "ITBMS 7%"},
		{Code: Alcohol, Percent: decimal.NewFromInt(10), Label: "ITBMS 10% (bebidas alcohólicas)"},
		{Code: Tobacco, Percent: decimal.NewFromInt(15), Label: "ITBMS 15% (tabaco)"},
		{Code: Exempt, Percent: decimal.Zero, Label: "Exento"},
	}, General, map[string]Code{
		"medicine":   Exempt,
		"basic_food": Exempt,
		"baby":       Exempt,
		"alcohol":    Alcohol,
		"tobacco":    Tobacco,
	})
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the rate registered under code.
func (t *Table) Lookup(code Code) (Rate, bool) {
	if t == nil {
		return Rate{}, false
	}
	r, ok := t.rates[code]
	return r, ok
}

// Default returns the process-wide default rate.
func (t *Table) Default() Rate {
	return t.rates[t.def]
}

// ForCategory applies the category rule and falls back to the default rate.
func (t *Table) ForCategory(category string) Rate {
	if code, ok := t.categories[normalizeCategory(category)]; ok {
		return t.rates[code]
	}
	return t.Default()
}

// Rates lists the catalog in declaration order.
func (t *Table) Rates() []Rate {
	out := make([]Rate, 0, len(t.order))
	for _, code := range t.order {
		out = append(out, t.rates[code])
	}
	return out
}

// Categories returns a copy of the category rules.
func (t *Table) Categories() map[string]Code {
	out := make(map[string]Code, len(t.categories))
	for k, v := range t.categories {
		out[k] = v
	}
	return out
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

type catalogFile struct {
	Default    string            `yaml:"default"`
	Rates      []catalogRate     `yaml:"rates"`
	Categories map[string]string `yaml:"categories"`
}

type catalogRate struct {
	Code    string `yaml:"code"`
	Percent string `yaml:"percent"`
	Label   string `yaml:"label"`
}

// LoadTable reads a YAML catalog from path.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tax catalog: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes a YAML catalog:
//
//	default: general
//	rates:
//	  - {code: general, percent: "7", label: ITBMS 7%}
//	categories:
//	  medicine: exempt
func ParseTable(data []byte) (*Table, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode tax catalog: %w", err)
	}
	rates := make([]Rate, 0, len(file.Rates))
	for _, r := range file.Rates {
		pct, err := decimal.NewFromString(strings.TrimSpace(r.Percent))
		if err != nil {
			return nil, fmt.Errorf("tax catalog: rate %q percent: %w", r.Code, err)
		}
		rates = append(rates, Rate{Code: Code(r.Code), Percent: pct, Label: r.Label})
	}
	categories := make(map[string]Code, len(file.Categories))
	for k, v := range file.Categories {
		categories[k] = Code(strings.TrimSpace(v))
	}
	return NewTable(rates, Code(strings.TrimSpace(file.Default)), categories)
}

// SortedCategoryNames returns the keys of m in ascending order.
func SortedCategoryNames(m map[string]Code) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
