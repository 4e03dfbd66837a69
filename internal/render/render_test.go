package render

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/codec"
	"invoicer/internal/pdftext"
	"invoicer/pkg/models"
)

func testSnapshot() *models.Snapshot {
	s := models.NewSnapshot(time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC))
	s.Profile.Region = models.RegionUK
	s.Profile.LegalName = "Acme Studio Ltd"
	s.Profile.AddressLines = []string{"1 Road", "City"}
	s.Profile.VATNumber = "GB123456789"
	s.Client.CompanyName = "Bloggs & Sons"
	s.Client.AddressLines = []string{"9 High Street"}
	s.Invoice.Number = "INV-0041"
	s.Invoice.TermsDays = models.IntPtr(30)
	s.Invoice.TaxLabelMode = models.TaxLabelVAT
	s.Invoice.TaxRate = decimal.NewFromInt(20)
	s.Items = []models.LineItem{
		{Basis: models.BasisPerHour, Description: "Editing and proofreading of the annual report", Quantity: decimal.RequireFromString("1.5"), Rate: decimal.NewFromInt(40)},
	}
	s.Payments.AcceptBank = true
	s.Payments.BankUK = models.BankUK{AccountName: "Acme Studio Ltd", SortCode: "12-34-56", AccountNumber: "12345678"}
	s.Payments.FooterNotes = "Thank you for your business"
	return s
}

func TestRenderProducesPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Uncompressed: true}).Render(&buf, testSnapshot()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "%PDF"))
	assert.Contains(t, out, "invoicer_region=UK")
	assert.Contains(t, out, "Payment Instructions")
}

func TestRenderNilSnapshot(t *testing.T) {
	err := New(Options{}).Render(&bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, ErrNilSnapshot)
}

func TestRenderedPayloadRoundTrips(t *testing.T) {
	want := testSnapshot()

	var buf bytes.Buffer
	require.NoError(t, New(Options{}).Render(&buf, want))

	text, err := pdftext.NewLayerExtractor().ExtractText(context.Background(), &buf)
	require.NoError(t, err)

	got, found := codec.Prefill(text)
	require.True(t, found)
	assert.Equal(t, "INV-0042", got.Invoice.Number)
	assert.Equal(t, want.Profile.LegalName, got.Profile.LegalName)
	assert.Equal(t, want.Client.CompanyName, got.Client.CompanyName)
	assert.Equal(t, want.Profile.AddressLines, got.Profile.AddressLines)
	assert.Equal(t, want.Payments.FooterNotes, got.Payments.FooterNotes)
	require.Len(t, got.Items, 1)
	assert.Equal(t, want.Items[0].Description, got.Items[0].Description)
	assert.True(t, want.Items[0].Quantity.Equal(got.Items[0].Quantity))
}

func TestRenderedPayloadKeepsCharactersOutsideCP1252(t *testing.T) {
	want := testSnapshot()
	want.Client.ContactName = "\u0141ukasz \u017b\u00f3\u0142\u0107"
	want.Client.CompanyName = "M\u00fcller  GmbH \u2013 caf\u00e9 \u20ac"
	want.Client.Notes = "\u65e5\u672c & \u0391\u03b2"

	var buf bytes.Buffer
	require.NoError(t, New(Options{}).Render(&buf, want))

	text, err := pdftext.NewLayerExtractor().ExtractText(context.Background(), &buf)
	require.NoError(t, err)

	got, found := codec.Prefill(text)
	require.True(t, found)
	assert.Equal(t, want.Client.ContactName, got.Client.ContactName)
	assert.Equal(t, want.Client.CompanyName, got.Client.CompanyName)
	assert.Equal(t, want.Client.Notes, got.Client.Notes)
}

func TestEscapeUnencodable(t *testing.T) {
	assert.Equal(t, "&#321;ukasz caf\u00e9 \u00a3", escapeUnencodable("\u0141ukasz caf\u00e9 \u00a3"))
	assert.Equal(t, "plain & simple", escapeUnencodable("plain & simple"))
}

func TestSplitPayloadKeepsEveryByte(t *testing.T) {
	measure := func(s string) float64 { return float64(len(s)) }
	line := "invoicer_legal_name=Acme Studio Ltd&invoicer_client_company_name=Bloggs &amp; Sons&invoicer_footer_notes=NIL"

	pieces := splitPayload(line, 20, measure)
	require.Greater(t, len(pieces), 1)
	assert.Equal(t, line, strings.Join(pieces, ""))
	for _, piece := range pieces {
		assert.LessOrEqual(t, measure(piece), 20.0, "piece %q", piece)
	}
}

func TestSplitPayloadPrefersSpacesAndDelimiters(t *testing.T) {
	measure := func(s string) float64 { return float64(len(s)) }

	pieces := splitPayload("aaaa bbbb&cccc", 7, measure)
	assert.Equal(t, []string{"aaaa ", "bbbb&", "cccc"}, pieces)

	pieces = splitPayload("abcdefghij", 4, measure)
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, pieces)

	assert.Empty(t, splitPayload("", 10, measure))
}

func TestSplitPayloadThroughLineBreakingReader(t *testing.T) {
	measure := func(s string) float64 { return float64(len(s)) }
	line := codec.EncodeLine(testSnapshot())

	// A reader that puts each drawn piece on its own line.
	text := strings.Join(splitPayload(line, 60, measure), "\n")

	got, found := codec.Decode(codec.Extract(text), codec.DecodeOptions{})
	require.True(t, found)
	assert.Equal(t, "Acme Studio Ltd", got.Profile.LegalName)
	assert.Equal(t, "Bloggs & Sons", got.Client.CompanyName)
	assert.Equal(t, "Thank you for your business", got.Payments.FooterNotes)
}
