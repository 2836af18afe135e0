package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders raw amounts for display. The engine never formats; handlers and
// CLIs call a Formatter at the edge.
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewFormatter builds a Formatter for an ISO 4217 code and BCP 47 locale tag.
// Unknown codes fall back to USD and unknown tags to en-US. The zero Formatter
// behaves like NewFormatter("USD", "en-US").
func NewFormatter(code, locale string) Formatter {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		unit = currency.USD
	}
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.AmericanEnglish
	}
	return Formatter{unit: unit, printer: message.NewPrinter(tag)}
}

// Code returns the ISO currency code.
func (f Formatter) Code() string {
	if f.printer == nil {
		return currency.USD.String()
	}
	return f.unit.String()
}

// Format renders amount rounded to cents with the currency symbol, e.g. "$1,234.50".
func (f Formatter) Format(amount decimal.Decimal) string {
	if f.printer == nil {
		f = NewFormatter("USD", "en-US")
	}
	printer := f.printer
	rounded := Round2(amount)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	symbol := printer.Sprint(currency.Symbol(f.unit))
	whole, cents, _ := strings.Cut(rounded.StringFixed(2), ".")
	return sign + symbol + group(whole, groupSeparator(printer)) + "." + cents
}

// groupSeparator reads the locale's thousands separator off a formatted 1000.
func groupSeparator(printer *message.Printer) string {
	s := printer.Sprintf("%d", 1000)
	return strings.TrimSuffix(strings.TrimPrefix(s, "1"), "000")
}

// group inserts sep between every three digits of a non-negative integer string.
func group(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
