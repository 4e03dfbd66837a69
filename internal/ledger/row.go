package ledger

import (
	"strings"
	"time"

	"invoicer/internal/money"
	"invoicer/pkg/models"
)

// Headers names the ledger columns, A to J.
var Headers = []string{
	"Invoice No", "Invoice Date", "Client", "Currency", "Subtotal",
	"Tax", "Total", "Due Date", "PO/Ref", "Recorded At",
}

// lastColumn is the letter of the final ledger column.
const lastColumn = "J"

// Row is one invoice in the ledger.
type Row struct {
	InvoiceNumber string
	Date          string
	Client        string
	Currency      string
	Subtotal      string
	Tax           string
	Total         string
	DueDate       string
	POReference   string
	RecordedAt    string
}

// NewRow summarizes s for the ledger. Dates use ISO layout so the sheet sorts
// them correctly regardless of region.
func NewRow(s *models.Snapshot, rule models.DueDateRule, recordedAt time.Time) Row {
	totals := money.ComputeTotals(s.Items, s.Invoice.TaxRate)

	row := Row{
		InvoiceNumber: s.Invoice.Number,
		Client:        clientName(s.Client),
		Currency:      string(s.Invoice.Currency),
		Subtotal:      money.Format(totals.Subtotal),
		Tax:           money.Format(totals.Tax),
		Total:         money.Format(totals.Total),
		POReference:   s.Client.POReference,
		RecordedAt:    recordedAt.UTC().Format(time.RFC3339),
	}
	if !s.Invoice.Date.IsZero() {
		row.Date = s.Invoice.Date.Format("2006-01-02")
	}
	if due, ok := s.Invoice.DueDate(rule); ok {
		row.DueDate = due.Format("2006-01-02")
	}
	return row
}

func clientName(c models.Client) string {
	if name := strings.TrimSpace(c.CompanyName); name != "" {
		return name
	}
	return strings.TrimSpace(c.ContactName)
}

// Strings returns the cell values in column order.
func (r Row) Strings() []string {
	return []string{
		r.InvoiceNumber, // A
		r.Date,          // B
		r.Client,        // C
		r.Currency,      // D
		r.Subtotal,      // E
		r.Tax,           // F
		r.Total,         // G
		r.DueDate,       // H
		r.POReference,   // I
		r.RecordedAt,    // J
	}
}

// values converts the row for the Sheets API.
func (r Row) values() []interface{} {
	cells := r.Strings()
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
