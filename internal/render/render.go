// Package render draws an invoice snapshot as an A4 PDF with the payload line
// embedded as invisible text after all visible content.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"

	"invoicer/internal/codec"
	"invoicer/internal/logger"
	"invoicer/internal/money"
	"invoicer/pkg/models"
)

const (
	marginX      = 18.0
	marginTop    = 16.0
	marginBottom = 16.0
	contentWidth = 210.0 - 2*marginX

	// payloadFontSize keeps the payload block small enough to sit under the footer.
	payloadFontSize   = 1.0
	payloadLineHeight = 0.6
)

// Options control rendering.
type Options struct {
	DueDateRule models.DueDateRule
	// Uncompressed writes plain content streams, which makes the output
	// inspectable with a text editor.
	Uncompressed bool
}

// Renderer produces invoice PDFs.
type Renderer struct {
	opts Options
	log  zerolog.Logger
}

// New creates a Renderer. An empty due date rule means net terms.
func New(opts Options) *Renderer {
	if opts.DueDateRule == "" {
		opts.DueDateRule = models.DueDateNet
	}
	return &Renderer{
		opts: opts,
		log:  logger.WithComponent("render"),
	}
}

// Render writes the PDF for s to w.
func (r *Renderer) Render(w io.Writer, s *models.Snapshot) error {
	const op = "Render"
	if s == nil {
		return WrapRenderError(op, ErrNilSnapshot, "")
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(!r.opts.Uncompressed)
	doc.SetMargins(marginX, marginTop, marginX)
	doc.SetAutoPageBreak(true, marginBottom)
	doc.SetTitle("Invoice "+s.Invoice.Number, true)
	doc.SetCreator("invoicer", true)
	doc.AddPage()

	p := &page{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}
	totals := money.ComputeTotals(s.Items, s.Invoice.TaxRate)

	p.header(s, r.opts.DueDateRule)
	p.billTo(s.Client)
	p.items(s.Items, s.Invoice.Currency)
	p.totals(s.Invoice, totals)
	p.payments(s.Payments)

	line := codec.EncodeLine(s)
	p.payload(line)

	if doc.Err() {
		return WrapRenderError(op, doc.Error(), "layout failed")
	}
	if err := doc.Output(w); err != nil {
		return WrapRenderError(op, err, "failed to write PDF")
	}

	r.log.Debug().
		Str("invoice_number", s.Invoice.Number).
		Int("items", len(s.Items)).
		Int("payload_bytes", len(line)).
		Str("total", totals.Total.String()).
		Msg("Invoice rendered")
	return nil
}

type page struct {
	doc *gofpdf.Fpdf
	tr  func(string) string
}

func (p *page) font(style string, size float64) {
	p.doc.SetFont("Helvetica", style, size)
}

func (p *page) header(s *models.Snapshot, rule models.DueDateRule) {
	prof := s.Profile
	inv := s.Invoice

	left := []string{prof.Heading()}
	if trading := strings.TrimSpace(prof.TradingName); trading != "" && trading != left[0] {
		left = append(left, trading)
	}
	left = append(left, nonEmpty(prof.AddressLines)...)
	if contact := strings.Join(nonEmpty([]string{prof.Email, prof.Phone, prof.Mobile}), " | "); contact != "" {
		left = append(left, contact)
	}
	var ids []string
	if prof.CompanyNumber != "" {
		ids = append(ids, "Company No: "+prof.CompanyNumber)
	}
	if prof.VATNumber != "" {
		ids = append(ids, "VAT No: "+prof.VATNumber)
	}
	if prof.TaxID != "" {
		ids = append(ids, "Tax ID: "+prof.TaxID)
	}
	if len(ids) > 0 {
		left = append(left, strings.Join(ids, "   "))
	}

	layout := prof.Region.DateLayout()
	right := []string{"INVOICE", "Invoice No: " + inv.Number}
	if !inv.Date.IsZero() {
		right = append(right, "Invoice Date: "+inv.Date.Format(layout))
	}
	if inv.TermsDays != nil {
		right = append(right, fmt.Sprintf("Terms: %d days", *inv.TermsDays))
	}
	if due, ok := inv.DueDate(rule); ok {
		right = append(right, "Due Date: "+due.Format(layout))
	}
	if inv.Currency != "" {
		right = append(right, "Currency: "+string(inv.Currency))
	}

	const leftWidth = 100.0
	rows := max(len(left), len(right))
	for i := 0; i < rows; i++ {
		style, size := "", 9.0
		if i == 0 {
			style, size = "B", 13
		}
		p.font(style, size)
		h := size * 0.5
		p.doc.CellFormat(leftWidth, h, p.fit(at(left, i), leftWidth), "", 0, "L", false, 0, "")
		p.doc.CellFormat(contentWidth-leftWidth, h, p.fit(at(right, i), contentWidth-leftWidth), "", 1, "R", false, 0, "")
	}
	p.doc.Ln(6)
}

func (p *page) billTo(c models.Client) {
	p.section("Bill To")
	p.font("", 9)

	lines := []string{c.ContactName, c.CompanyName}
	lines = append(lines, c.AddressLines...)
	lines = append(lines, c.Email)
	if c.POReference != "" {
		lines = append(lines, "PO/Ref: "+c.POReference)
	}
	lines = append(lines, c.Notes)
	lines = nonEmpty(lines)
	if len(lines) == 0 {
		lines = []string{"-"}
	}
	for _, line := range lines {
		p.doc.MultiCell(contentWidth, 4.5, p.tr(line), "", "L", false)
	}
	p.doc.Ln(5)
}

var itemColumns = []struct {
	title string
	width float64
	align string
}{
	{"#", 10, "C"},
	{"Basis", 28, "L"},
	{"Description", 66, "L"},
	{"Qty", 20, "R"},
	{"Rate", 24, "R"},
	{"Line Total", 26, "R"},
}

func (p *page) items(items []models.LineItem, currency models.Currency) {
	p.doc.SetFillColor(245, 245, 245)
	p.doc.SetDrawColor(160, 160, 160)
	p.doc.SetLineWidth(0.2)

	p.font("B", 9)
	for _, col := range itemColumns {
		p.doc.CellFormat(col.width, 7, col.title, "1", 0, col.align, true, 0, "")
	}
	p.doc.Ln(-1)

	p.font("", 9)
	if len(items) == 0 {
		p.doc.CellFormat(contentWidth, 7, "No items", "1", 1, "C", false, 0, "")
	}
	for i, it := range items {
		cells := []string{
			fmt.Sprintf("%d", i+1),
			string(it.Basis),
			it.Description,
			money.Format(it.Quantity),
			money.Display(currency, it.Rate),
			money.Display(currency, money.LineTotal(it.Quantity, it.Rate)),
		}
		for c, col := range itemColumns {
			p.doc.CellFormat(col.width, 7, p.fit(cells[c], col.width-2), "1", 0, col.align, false, 0, "")
		}
		p.doc.Ln(-1)
	}
	p.doc.Ln(4)
}

func (p *page) totals(inv models.InvoiceMeta, t money.Totals) {
	rows := [][2]string{{"Subtotal", money.Display(inv.Currency, t.Subtotal)}}
	if label, ok := inv.TaxLabel(); ok {
		rows = append(rows, [2]string{
			fmt.Sprintf("%s (%s%%)", label, money.Format(inv.TaxRate)),
			money.Display(inv.Currency, t.Tax),
		})
	}
	rows = append(rows, [2]string{"Total", money.Display(inv.Currency, t.Total)})

	const labelWidth, valueWidth = 45.0, 30.0
	for i, row := range rows {
		if i == len(rows)-1 {
			p.font("B", 10)
		} else {
			p.font("", 9)
		}
		p.doc.SetX(marginX + contentWidth - labelWidth - valueWidth)
		p.doc.CellFormat(labelWidth, 6, p.tr(row[0]), "", 0, "L", false, 0, "")
		p.doc.CellFormat(valueWidth, 6, p.tr(row[1]), "", 1, "R", false, 0, "")
	}
	p.doc.Ln(6)
}

func (p *page) payments(pay models.PaymentConfig) {
	p.section("Payment Instructions")
	p.font("", 9)

	var lines []string
	add := func(s ...string) {
		lines = append(lines, nonEmpty(s)...)
	}
	if pay.AcceptWise {
		add("Wise:", pay.WiseText)
	}
	if pay.AcceptStripe {
		add("Stripe:", pay.StripeText)
	}
	if pay.AcceptPayPal {
		add("PayPal:", pay.PayPalText)
	}
	if pay.AcceptBank {
		if pay.BankCountry == models.BankCountryUS {
			us := pay.BankUS
			add("Bank Transfer (US)",
				"Account name: "+us.AccountName,
				"Routing number: "+us.RoutingNumber,
				"Account number: "+us.AccountNumber)
			if us.Notes != "" {
				add("Notes: " + us.Notes)
			}
		} else {
			uk := pay.BankUK
			add("Bank Transfer (UK)",
				"Account name: "+uk.AccountName,
				"Sort code: "+uk.SortCode,
				"Account number: "+uk.AccountNumber)
			if uk.IBAN != "" {
				add("IBAN: " + uk.IBAN)
			}
			if uk.BIC != "" {
				add("BIC: " + uk.BIC)
			}
		}
	}
	add(pay.FooterNotes)
	if len(lines) == 0 {
		lines = []string{"No payment instructions provided."}
	}
	for _, line := range lines {
		p.doc.MultiCell(contentWidth, 4.5, p.tr(line), "", "L", false)
	}
	p.doc.Ln(4)
}

// payload draws the encoded line in white at the smallest practical size. The
// line is cut into pieces without dropping any byte, so concatenating the text
// layer gives back the exact line.
func (p *page) payload(line string) {
	p.doc.SetTextColor(255, 255, 255)
	p.font("", payloadFontSize)
	for _, piece := range splitPayload(p.tr(escapeUnencodable(line)), contentWidth, p.doc.GetStringWidth) {
		p.doc.CellFormat(contentWidth, payloadLineHeight, piece, "", 1, "L", false, 0, "")
	}
	p.doc.SetTextColor(0, 0, 0)
}

// escapeUnencodable writes every rune the core fonts cannot show (anything
// outside cp1252) as a decimal character reference, which the payload
// extractor decodes.
func escapeUnencodable(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		if _, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteRune(r)
			continue
		}
		fmt.Fprintf(&b, "&#%d;", r)
	}
	return b.String()
}

func (p *page) section(title string) {
	p.font("B", 10)
	p.doc.CellFormat(contentWidth, 6, title, "", 1, "L", false, 0, "")
}

// fit translates s and shortens it with "..." until it fits width.
func (p *page) fit(s string, width float64) string {
	s = p.tr(s)
	if p.doc.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && p.doc.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// splitPayload cuts text into pieces no wider than maxWidth. Cuts prefer the
// position just after a space or delimiter so a reader that inserts line breaks
// between pieces only ever breaks where whitespace or a key boundary already is.
// Text is in a single-byte encoding, so cuts are made on byte boundaries.
func splitPayload(text string, maxWidth float64, measure func(string) float64) []string {
	var pieces []string
	start, lastBreak := 0, -1
	width := 0.0
	for i := 0; i < len(text); i++ {
		w := measure(text[i : i+1])
		if width+w > maxWidth && i > start {
			cut := i
			if lastBreak > start {
				cut = lastBreak
			}
			pieces = append(pieces, text[start:cut])
			start = cut
			width = measure(text[start:i])
			lastBreak = -1
		}
		width += w
		if text[i] == ' ' || text[i] == codec.Delimiter[0] {
			lastBreak = i + 1
		}
	}
	if start < len(text) {
		pieces = append(pieces, text[start:])
	}
	return pieces
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
