package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/money"
	"invoicer/pkg/models"
)

func TestRoundTripCanonicalLine(t *testing.T) {
	want := sampleSnapshot()

	got, found := Decode(Extract(EncodeLine(want)), DecodeOptions{})
	require.True(t, found)
	assert.Equal(t, want.Invoice.Number, got.Invoice.Number)
	assertSameSnapshot(t, want, got)
}

// wrapText breaks s every width runes, preferring the next space so values keep
// their word boundaries. Keys may be broken anywhere.
func wrapText(s string, width int) string {
	var b strings.Builder
	col := 0
	inValue := false
	for i, r := range s {
		switch {
		case r == '=':
			inValue = true
		case r == '&' && strings.HasPrefix(s[i+1:], KeyPrefix):
			inValue = false
		}
		if col >= width {
			if !inValue {
				b.WriteString("\n")
				col = 0
			} else if r == ' ' {
				b.WriteString("\r\n")
				col = 0
				continue
			}
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

func TestRoundTripThroughWrappedDocumentText(t *testing.T) {
	want := sampleSnapshot()
	raw := "ACME STUDIO LTD\nINVOICE INV-00209\nPayment Instructions\n" +
		wrapText(EncodeLine(want), 37)
	raw = strings.ReplaceAll(raw, "Acme Studio", "Acme\u00a0Studio")

	got, found := Prefill(raw)
	require.True(t, found)
	assert.Equal(t, "INV-00210", got.Invoice.Number)
	assertSameSnapshot(t, want, got)
}

func TestRoundTripPreservesValueSpecialCharacters(t *testing.T) {
	want := sampleSnapshot()
	want.Client.Notes = "A & B = C; 50% off & more"
	want.Payments.FooterNotes = "invoicer & co"

	got, found := Decode(Extract(EncodeLine(want)), DecodeOptions{})
	require.True(t, found)
	assert.Equal(t, want.Client.Notes, got.Client.Notes)
	assert.Equal(t, want.Payments.FooterNotes, got.Payments.FooterNotes)
}

func TestRoundTripEmptyFields(t *testing.T) {
	want := models.NewSnapshot(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))

	got, found := Decode(EncodeLine(want), DecodeOptions{})
	require.True(t, found)
	assert.Equal(t, []string{""}, got.Profile.AddressLines)
	assert.Nil(t, got.Invoice.TermsDays)
	assert.Empty(t, got.Items)
	assert.Equal(t, models.CurrencyGBP, got.Invoice.Currency)
	assert.True(t, want.Invoice.Date.Equal(got.Invoice.Date))
}

func TestPrefillRecomputesSameTotals(t *testing.T) {
	s := sampleSnapshot()
	s.Items = []models.LineItem{
		{Basis: models.BasisPerHour, Description: "Editing", Quantity: dec("1.5"), Rate: dec("40.00")},
	}
	s.Invoice.TaxRate = decimal.NewFromInt(20)

	before := money.ComputeTotals(s.Items, s.Invoice.TaxRate)
	assertDecimal(t, dec("60.00"), before.Subtotal, "subtotal")
	assertDecimal(t, dec("12.00"), before.Tax, "tax")
	assertDecimal(t, dec("72.00"), before.Total, "total")

	raw := "Total due £72.00\n" + wrapText(EncodeLine(s), 50) + "\nPage 1 of 1"
	got, found := Prefill(raw)
	require.True(t, found)

	after := money.ComputeTotals(got.Items, got.Invoice.TaxRate)
	assertDecimal(t, before.Subtotal, after.Subtotal, "subtotal")
	assertDecimal(t, before.Tax, after.Tax, "tax")
	assertDecimal(t, before.Total, after.Total, "total")
	assert.Equal(t, "INV-00210", got.Invoice.Number)
}

func TestPrefillWithoutPayload(t *testing.T) {
	got, found := Prefill("Just an ordinary invoice\nTotal £10.00")
	assert.False(t, found)
	require.NotNil(t, got)
	assert.Empty(t, got.Invoice.Number)
}
