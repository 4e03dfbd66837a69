package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/pkg/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestQuantizeRoundsHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1.00"},
		{"2.675", "2.68"},
		{"0.125", "0.13"},
		{"0.135", "0.14"},
		{"10", "10.00"},
		{"-1.005", "-1.01"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(Quantize(dec(tt.in))))
		})
	}
}

func TestQuantizeIsIdempotent(t *testing.T) {
	for _, s := range []string{"0", "1.005", "3.14159", "99999.995", "0.004", "-7.125"} {
		once := Quantize(dec(s))
		assert.True(t, once.Equal(Quantize(once)), "quantize not idempotent for %s", s)
	}
}

func TestParse(t *testing.T) {
	d, err := Parse(" 1,234.565 ")
	require.NoError(t, err)
	assert.Equal(t, "1234.57", Format(d))

	_, err = Parse("abc")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Parse("   ")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMustParsePanicsOnInvalidInput(t *testing.T) {
	assert.Panics(t, func() { MustParse("twelve") })
	assert.NotPanics(t, func() { MustParse("12") })
}

func TestComputeTotalsRoundsEachLineBeforeSumming(t *testing.T) {
	items := []models.LineItem{
		{Quantity: dec("3"), Rate: dec("0.10")},
		{Quantity: dec("3"), Rate: dec("0.10")},
	}
	totals := ComputeTotals(items, decimal.Zero)
	assert.Equal(t, "0.60", Format(totals.Subtotal))

	// Rounding that only shows up per line: 0.333 × 1.00 rounds to 0.33 three times.
	items = []models.LineItem{
		{Quantity: dec("1"), Rate: dec("0.333")},
		{Quantity: dec("1"), Rate: dec("0.333")},
		{Quantity: dec("1"), Rate: dec("0.333")},
	}
	totals = ComputeTotals(items, decimal.Zero)
	assert.Equal(t, "0.99", Format(totals.Subtotal))
}

func TestComputeTotalsWithTax(t *testing.T) {
	items := []models.LineItem{{Basis: models.BasisPerHour, Quantity: dec("1.5"), Rate: dec("40.00")}}
	totals := ComputeTotals(items, dec("20"))
	assert.Equal(t, "60.00", Format(totals.Subtotal))
	assert.Equal(t, "12.00", Format(totals.Tax))
	assert.Equal(t, "72.00", Format(totals.Total))

	totals = ComputeTotals([]models.LineItem{{Quantity: dec("1"), Rate: dec("10.05")}}, dec("17.5"))
	assert.Equal(t, "1.76", Format(totals.Tax)) // 1.75875
	assert.Equal(t, "11.81", Format(totals.Total))
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil, dec("20"))
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.Total.IsZero())
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "£72.00", Display(models.CurrencyGBP, dec("72")))
	assert.Equal(t, "$0.50", Display(models.CurrencyUSD, dec("0.499")))
	assert.Equal(t, "€1.00", Display(models.CurrencyEUR, dec("1")))
	assert.Equal(t, "3.00", Display("", dec("3")))
}
