// Package money is the fixed-point monetary engine shared by the payload encoder,
// the document renderer and every totals recomputation.
//
// All amounts are quantized to two decimal places using round-half-up
// (half away from zero). Line totals are rounded before they are summed, so a
// decoded payload recomputes to exactly the figures the original document displayed.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"invoicer/pkg/models"
)

// Places is the number of decimal places every monetary value carries.
const Places = 2

// ErrInvalidAmount is returned when a value cannot be read as a decimal number.
var ErrInvalidAmount = errors.New("invalid monetary amount")

var hundred = decimal.NewFromInt(100)

// Totals are the three figures shown in the totals panel.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax_amount"`
	Total    decimal.Decimal `json:"total"`
}

// Quantize rounds d to two decimal places, half away from zero.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Parse reads s as a decimal number and quantizes it.
// Surrounding whitespace and thousands separators are ignored.
func Parse(s string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Quantize(d), nil
}

// MustParse is Parse for values the caller controls. It panics on invalid input.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// LineTotal returns quantize(quantize(qty) × quantize(rate)).
func LineTotal(qty, rate decimal.Decimal) decimal.Decimal {
	return Quantize(Quantize(qty).Mul(Quantize(rate)))
}

// ComputeTotals sums the per-line rounded totals and applies the tax rate percentage.
func ComputeTotals(items []models.LineItem, taxRatePercent decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(LineTotal(it.Quantity, it.Rate))
	}
	subtotal = Quantize(subtotal)
	tax := Quantize(subtotal.Mul(taxRatePercent).Div(hundred))
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    Quantize(subtotal.Add(tax)),
	}
}

// Format renders d quantized with exactly two decimals, e.g. "60.00".
func Format(d decimal.Decimal) string {
	return Quantize(d).StringFixed(Places)
}

// Display prefixes the formatted amount with the currency symbol.
func Display(c models.Currency, d decimal.Decimal) string {
	return c.Symbol() + Format(d)
}
