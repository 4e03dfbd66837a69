// Package codec serializes a Snapshot into a single delimited text line that is
// embedded invisibly in the rendered invoice, and recovers it from whatever a
// generic text-extraction pass returns for that document.
//
// Payload grammar:
//   - pairs are "key=value" joined with '&'; a literal '&' inside a value is written as "&amp;"
//   - keys are lowercase ASCII letters, digits and underscores, always starting with "invoicer_"
//   - empty values are written as the sentinel NIL; booleans as True / False
//   - address lines are keyed invoicer_<role>_address_line_<N> with N zero-based
//   - line items are keyed invoicer_item_<N>_<field> with N one-based
//
// The codec is pure: every call works on its own input and is safe for concurrent use.
package codec

import (
	"fmt"
	"regexp"
)

const (
	// KeyPrefix starts every payload key.
	KeyPrefix = "invoicer"

	// Delimiter separates pairs in the payload line.
	Delimiter = "&"

	// DelimiterEscape replaces Delimiter inside values.
	DelimiterEscape = "&amp;"

	// Sentinel stands in for an empty value.
	Sentinel = "NIL"

	// FormatVersion is written under keyFormatVersion at the start of every payload.
	FormatVersion = "1"

	// DateLayout is the day/month/year layout used for dates inside the payload,
	// independent of the region's display format.
	DateLayout = "02/01/2006"

	// dateParseLayout also accepts single-digit day and month.
	dateParseLayout = "2/1/2006"
)

const (
	roleYour   = "your"
	roleClient = "client"
)

const (
	keyFormatVersion = KeyPrefix + "_format_version"

	keyRegion        = KeyPrefix + "_region"
	keyLegalName     = KeyPrefix + "_legal_name"
	keyTradingName   = KeyPrefix + "_trading_name"
	keyEmail         = KeyPrefix + "_email"
	keyPhone         = KeyPrefix + "_phone"
	keyMobile        = KeyPrefix + "_mobile"
	keyCompanyNumber = KeyPrefix + "_company_number"
	keyVATNumber     = KeyPrefix + "_vat_number"
	keyTaxID         = KeyPrefix + "_tax_id"

	keyClientContactName = KeyPrefix + "_client_contact_name"
	keyClientCompanyName = KeyPrefix + "_client_company_name"
	keyClientEmail       = KeyPrefix + "_client_email"
	keyClientPOReference = KeyPrefix + "_client_po_reference"
	keyClientNotes       = KeyPrefix + "_client_notes"

	keyInvoiceNumber  = KeyPrefix + "_invoice_number"
	keyInvoiceDate    = KeyPrefix + "_invoice_date"
	keyTermsDays      = KeyPrefix + "_terms_days"
	keyCurrency       = KeyPrefix + "_currency"
	keyTaxLabelMode   = KeyPrefix + "_tax_label_mode"
	keyTaxLabelCustom = KeyPrefix + "_tax_label_custom"
	keyTaxRate        = KeyPrefix + "_tax_rate"

	keyAcceptWise   = KeyPrefix + "_accept_wise"
	keyWiseText     = KeyPrefix + "_wise_text"
	keyAcceptStripe = KeyPrefix + "_accept_stripe"
	keyStripeText   = KeyPrefix + "_stripe_text"
	keyAcceptPayPal = KeyPrefix + "_accept_paypal"
	keyPayPalText   = KeyPrefix + "_paypal_text"
	keyAcceptBank   = KeyPrefix + "_accept_bank"
	keyBankCountry  = KeyPrefix + "_bank_country"

	keyBankUKAccountName   = KeyPrefix + "_bank_uk_account_name"
	keyBankUKSortCode      = KeyPrefix + "_bank_uk_sort_code"
	keyBankUKAccountNumber = KeyPrefix + "_bank_uk_account_number"
	keyBankUKIBAN          = KeyPrefix + "_bank_uk_iban"
	keyBankUKBIC           = KeyPrefix + "_bank_uk_bic"

	keyBankUSAccountName   = KeyPrefix + "_bank_us_account_name"
	keyBankUSRoutingNumber = KeyPrefix + "_bank_us_routing_number"
	keyBankUSAccountNumber = KeyPrefix + "_bank_us_account_number"
	keyBankUSNotes         = KeyPrefix + "_bank_us_notes"

	keyFooterNotes = KeyPrefix + "_footer_notes"
)

// Per-item fields, in encoding order.
const (
	itemNumber           = "number"
	itemBasis            = "basis"
	itemDescription      = "description"
	itemQtyDisplay       = "qty_display"
	itemRateDisplay      = "rate_display"
	itemLineTotalDisplay = "line_total_display"
)

var (
	keyGrammar     = regexp.MustCompile(`^` + KeyPrefix + `_[a-z0-9_]+$`)
	addressKeyExpr = regexp.MustCompile(`^` + KeyPrefix + `_(` + roleYour + `|` + roleClient + `)_address_line_(\d+)$`)
	itemKeyExpr    = regexp.MustCompile(`^` + KeyPrefix + `_item_(\d+)_(number|basis|description|qty_display|rate_display|line_total_display)$`)
)

func addressKey(role string, index int) string {
	return fmt.Sprintf("%s_%s_address_line_%d", KeyPrefix, role, index)
}

func itemKey(n int, field string) string {
	return fmt.Sprintf("%s_item_%d_%s", KeyPrefix, n, field)
}

// ValidKey reports whether key matches the payload key grammar.
func ValidKey(key string) bool {
	return keyGrammar.MatchString(key)
}
