package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the complete invoice state collected by the wizard.
// A decoded Snapshot is always a fresh value; it never aliases the live wizard state.
type Snapshot struct {
	Profile  Profile       `json:"profile" toml:"profile"`
	Client   Client        `json:"client" toml:"client"`
	Invoice  InvoiceMeta   `json:"invoice" toml:"invoice"`
	Items    []LineItem    `json:"items" toml:"items"`
	Payments PaymentConfig `json:"payments" toml:"payments"`
}

// Profile describes the party issuing the invoice.
type Profile struct {
	Region        Region   `json:"region" toml:"region"`
	LegalName     string   `json:"legal_name" toml:"legal_name"`
	TradingName   string   `json:"trading_name" toml:"trading_name"`
	AddressLines  []string `json:"address_lines" toml:"address_lines"` // Order and count are significant
	Email         string   `json:"email" toml:"email"`
	Phone         string   `json:"phone" toml:"phone"`
	Mobile        string   `json:"mobile" toml:"mobile"`
	CompanyNumber string   `json:"company_number" toml:"company_number"`
	VATNumber     string   `json:"vat_number" toml:"vat_number"` // UK and EU only
	TaxID         string   `json:"tax_id" toml:"tax_id"`         // US only
}

// Client describes the party being billed.
type Client struct {
	ContactName  string   `json:"contact_name" toml:"contact_name"`
	CompanyName  string   `json:"company_name" toml:"company_name"`
	AddressLines []string `json:"address_lines" toml:"address_lines"`
	Email        string   `json:"email" toml:"email"`
	POReference  string   `json:"po_reference" toml:"po_reference"`
	Notes        string   `json:"notes" toml:"notes"`
}

// InvoiceMeta holds the invoice header fields.
type InvoiceMeta struct {
	Number         string          `json:"invoice_number" toml:"invoice_number"`
	Date           time.Time       `json:"invoice_date" toml:"invoice_date"`
	TermsDays      *int            `json:"terms_days,omitempty" toml:"terms_days,omitempty"` // nil until set
	Currency       Currency        `json:"currency" toml:"currency"`
	TaxLabelMode   TaxLabelMode    `json:"tax_label_mode" toml:"tax_label_mode"`
	TaxLabelCustom string          `json:"tax_label_custom" toml:"tax_label_custom"`
	TaxRate        decimal.Decimal `json:"tax_rate" toml:"tax_rate"` // Percentage, 0-100
}

// LineItem is one billable row.
type LineItem struct {
	Basis       Basis           `json:"basis" toml:"basis"`
	Description string          `json:"description" toml:"description"`
	Quantity    decimal.Decimal `json:"qty" toml:"qty"`   // Fractional hours for hour-based bases, counts otherwise
	Rate        decimal.Decimal `json:"rate" toml:"rate"` // Per unit, in the invoice currency
}

// PaymentConfig lists the accepted payment methods and their instructions.
type PaymentConfig struct {
	AcceptWise   bool        `json:"accept_wise" toml:"accept_wise"`
	AcceptStripe bool        `json:"accept_stripe" toml:"accept_stripe"`
	AcceptPayPal bool        `json:"accept_paypal" toml:"accept_paypal"`
	AcceptBank   bool        `json:"accept_bank" toml:"accept_bank"`
	WiseText     string      `json:"wise_text" toml:"wise_text"`
	StripeText   string      `json:"stripe_text" toml:"stripe_text"`
	PayPalText   string      `json:"paypal_text" toml:"paypal_text"`
	BankCountry  BankCountry `json:"bank_country" toml:"bank_country"` // Selects which of BankUK / BankUS is active
	BankUK       BankUK      `json:"bank_uk" toml:"bank_uk"`
	BankUS       BankUS      `json:"bank_us" toml:"bank_us"`
	FooterNotes  string      `json:"footer_notes" toml:"footer_notes"`
}

// BankUK holds UK bank transfer details.
type BankUK struct {
	AccountName   string `json:"account_name" toml:"account_name"`
	SortCode      string `json:"sort_code" toml:"sort_code"`
	AccountNumber string `json:"account_number" toml:"account_number"`
	IBAN          string `json:"iban" toml:"iban"`
	BIC           string `json:"bic" toml:"bic"`
}

// BankUS holds US bank transfer details.
type BankUS struct {
	AccountName   string `json:"account_name" toml:"account_name"`
	RoutingNumber string `json:"routing_number" toml:"routing_number"`
	AccountNumber string `json:"account_number" toml:"account_number"`
	Notes         string `json:"notes" toml:"notes"` // ACH / wire notes
}

// NewSnapshot returns the blank state the wizard starts from.
func NewSnapshot(today time.Time) *Snapshot {
	y, m, d := today.Date()
	return &Snapshot{
		Profile: Profile{AddressLines: []string{""}},
		Client:  Client{AddressLines: []string{""}},
		Invoice: InvoiceMeta{
			Date:         time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
			Currency:     CurrencyGBP,
			TaxLabelMode: TaxLabelNone,
			TaxRate:      decimal.Zero,
		},
		Items:    []LineItem{},
		Payments: PaymentConfig{BankCountry: BankCountryUK},
	}
}

// Heading returns the name shown at the top of the invoice.
func (p Profile) Heading() string {
	if name := strings.TrimSpace(p.LegalName); name != "" {
		return name
	}
	return strings.TrimSpace(p.TradingName)
}

// ApplyRegion clears the tax identifier that does not apply to the region.
func (p *Profile) ApplyRegion() {
	switch p.Region {
	case RegionUS:
		p.VATNumber = ""
	case RegionUK, RegionEU:
		p.TaxID = ""
	}
}

// TaxLabel returns the label for the tax row and whether a tax row is shown at all.
func (m InvoiceMeta) TaxLabel() (string, bool) {
	switch m.TaxLabelMode {
	case TaxLabelNone, "":
		return "", false
	case TaxLabelCustom:
		if label := strings.TrimSpace(m.TaxLabelCustom); label != "" {
			return label, true
		}
		return "Tax", true
	default:
		return string(m.TaxLabelMode), true
	}
}

// DueDate computes the payment due date under the given rule.
// The second return value is false when payment terms are not set.
func (m InvoiceMeta) DueDate(rule DueDateRule) (time.Time, bool) {
	if m.TermsDays == nil || m.Date.IsZero() {
		return time.Time{}, false
	}
	days := *m.TermsDays
	if rule == DueDateInclusive {
		days--
		if days < 0 {
			days = 0
		}
	}
	return m.Date.AddDate(0, 0, days), true
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Profile.AddressLines = append([]string(nil), s.Profile.AddressLines...)
	out.Client.AddressLines = append([]string(nil), s.Client.AddressLines...)
	out.Items = append([]LineItem(nil), s.Items...)
	if s.Invoice.TermsDays != nil {
		days := *s.Invoice.TermsDays
		out.Invoice.TermsDays = &days
	}
	return &out
}

// IntPtr is a helper for setting optional integer fields.
func IntPtr(v int) *int {
	return &v
}
