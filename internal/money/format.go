package money

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	DefaultCurrency = "USD"
	DefaultLocale   = "en-US"
)

var defaultFormatter = NewFormatter(DefaultLocale, DefaultCurrency)

// Formatter renders amounts for one locale with a fallback currency.
type Formatter struct {
	tag      language.Tag
	fallback currency.Unit
}

// NewFormatter builds a Formatter. Invalid locale or currency values fall
// back to en-US and USD.
func NewFormatter(locale, defaultCurrency string) *Formatter {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.AmericanEnglish
	}
	fallback, err := currency.ParseISO(strings.TrimSpace(defaultCurrency))
	if err != nil {
		fallback = currency.USD
	}
	return &Formatter{tag: tag, fallback: fallback}
}

// FormatMoney formats amount with the default en-US formatter.
func FormatMoney(amount float64, currencyCode string) string {
	return defaultFormatter.Format(amount, currencyCode)
}

// Format renders amount as symbol followed by grouped digits at the
// currency's minor-unit scale, e.g. "$1,234.50" or "¥1,235".
func (f *Formatter) Format(amount float64, currencyCode string) string {
	unit := f.Unit(currencyCode)
	scale, _ := currency.Standard.Rounding(unit)

	value := decimalOrZero(amount).RoundBank(int32(scale))
	sign := ""
	if value.IsNegative() {
		sign = "-"
		value = value.Abs()
	}

	p := message.NewPrinter(f.tag)
	symbol := p.Sprint(currency.Symbol(unit))
	digits := p.Sprint(number.Decimal(value.InexactFloat64(), number.Scale(scale)))
	return sign + symbol + digits
}

// Unit resolves a currency code, falling back to the formatter's default.
func (f *Formatter) Unit(currencyCode string) currency.Unit {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(currencyCode)))
	if err != nil {
		return f.fallback
	}
	return unit
}

// Code returns the normalized ISO code, falling back to the default.
func (f *Formatter) Code(currencyCode string) string {
	return f.Unit(currencyCode).String()
}

// Scale returns the number of minor-unit digits for the currency.
func (f *Formatter) Scale(currencyCode string) int {
	scale, _ := currency.Standard.Rounding(f.Unit(currencyCode))
	return scale
}

// FormatQuantity renders a quantity without trailing zeros.
func FormatQuantity(q float64) string {
	return decimalOrZero(q).String()
}
