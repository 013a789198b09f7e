// Package money computes document totals and formats monetary amounts.
//
// Sums are carried in decimal and returned as float64. Degenerate input
// (negative, NaN or infinite values) contributes zero instead of failing,
// so a half-filled form still previews.
package money

import (
	"math"

	"github.com/shopspring/decimal"
	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
	"golang.org/x/text/currency"
)

var hundred = decimal.NewFromInt(100)

// Totals holds the computed amounts of a document.
type Totals struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// ComputeSubtotal sums quantity * unit price over priced items.
// Delivery-note items carry no price and contribute nothing.
func ComputeSubtotal(items []documentdomain.LineItem) float64 {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(lineAmount(item))
	}
	return sum.InexactFloat64()
}

// LineAmount returns the clamped amount of a single item.
func LineAmount(item documentdomain.LineItem) float64 {
	return lineAmount(item).InexactFloat64()
}

// ComputeTax applies a percentage rate to the subtotal.
func ComputeTax(subtotal, taxRatePercent float64) float64 {
	return toDecimal(subtotal).
		Mul(toDecimal(taxRatePercent)).
		Div(hundred).
		InexactFloat64()
}

// ComputeTotal adds tax to the subtotal.
func ComputeTotal(subtotal, tax float64) float64 {
	return decimalOrZero(subtotal).Add(decimalOrZero(tax)).InexactFloat64()
}

// Compute runs the full subtotal, tax, total chain.
func Compute(items []documentdomain.LineItem, taxRatePercent float64) Totals {
	subtotal := ComputeSubtotal(items)
	tax := ComputeTax(subtotal, taxRatePercent)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    ComputeTotal(subtotal, tax),
	}
}

// SumQuantity totals item quantities, clamping degenerate values to zero.
func SumQuantity(items []documentdomain.LineItem) float64 {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(toDecimal(item.Quantity))
	}
	return sum.InexactFloat64()
}

// Sum adds stored amounts in decimal. Non-finite values count as zero.
func Sum(amounts ...float64) float64 {
	sum := decimal.Zero
	for _, amount := range amounts {
		sum = sum.Add(decimalOrZero(amount))
	}
	return sum.InexactFloat64()
}

// Round rounds half-to-even at the minor-unit scale of the currency.
// Unknown currencies round to two decimals.
func Round(amount float64, currencyCode string) float64 {
	scale := 2
	if unit, err := currency.ParseISO(currencyCode); err == nil {
		scale, _ = currency.Standard.Rounding(unit)
	}
	return decimalOrZero(amount).RoundBank(int32(scale)).InexactFloat64()
}

// RoundTotals rounds every field of t with Round.
func RoundTotals(t Totals, currencyCode string) Totals {
	return Totals{
		Subtotal: Round(t.Subtotal, currencyCode),
		Tax:      Round(t.Tax, currencyCode),
		Total:    Round(t.Total, currencyCode),
	}
}

func lineAmount(item documentdomain.LineItem) decimal.Decimal {
	if item.UnitPrice == nil {
		return decimal.Zero
	}
	return toDecimal(item.Quantity).Mul(toDecimal(*item.UnitPrice))
}

// toDecimal clamps negatives and non-finite values to zero.
func toDecimal(v float64) decimal.Decimal {
	if !finite(v) || v < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func decimalOrZero(v float64) decimal.Decimal {
	if !finite(v) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
