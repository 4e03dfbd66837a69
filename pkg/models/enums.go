package models

import "strings"

// Region selects tax identifier fields and the date display format.
type Region string

const (
	RegionUnset Region = ""
	RegionUK    Region = "UK"
	RegionUS    Region = "US"
	RegionEU    Region = "EU"
)

// ParseRegion maps free text to a Region; unknown input yields RegionUnset.
func ParseRegion(s string) Region {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UK":
		return RegionUK
	case "US":
		return RegionUS
	case "EU":
		return RegionEU
	}
	return RegionUnset
}

// DateLayout returns the display layout for invoice dates in this region.
func (r Region) DateLayout() string {
	switch r {
	case RegionUK, RegionEU:
		return "02/01/2006"
	case RegionUS:
		return "01/02/2006"
	}
	return "2006-01-02"
}

// Currency is the single currency of an invoice.
type Currency string

const (
	CurrencyGBP Currency = "GBP"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Currencies lists the supported currencies in menu order.
var Currencies = []Currency{CurrencyGBP, CurrencyUSD, CurrencyEUR}

// ParseCurrency maps a currency code to a Currency; unknown codes yield "".
func ParseCurrency(s string) Currency {
	code := Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, c := range Currencies {
		if c == code {
			return c
		}
	}
	return ""
}

// Symbol returns the display symbol, or "" for an unknown currency.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyGBP:
		return "£"
	case CurrencyUSD:
		return "$"
	case CurrencyEUR:
		return "€"
	}
	return ""
}

// TaxLabelMode selects the label printed on the tax row.
type TaxLabelMode string

const (
	TaxLabelNone     TaxLabelMode = "None"
	TaxLabelVAT      TaxLabelMode = "VAT"
	TaxLabelSalesTax TaxLabelMode = "Sales Tax"
	TaxLabelGST      TaxLabelMode = "GST"
	TaxLabelCustom   TaxLabelMode = "Custom"
)

// TaxLabelModes lists the label options in menu order.
var TaxLabelModes = []TaxLabelMode{TaxLabelNone, TaxLabelVAT, TaxLabelSalesTax, TaxLabelGST, TaxLabelCustom}

// ParseTaxLabelMode matches case-insensitively; unknown input yields "".
func ParseTaxLabelMode(s string) TaxLabelMode {
	s = strings.TrimSpace(s)
	for _, m := range TaxLabelModes {
		if strings.EqualFold(string(m), s) {
			return m
		}
	}
	return ""
}

// Basis is the billing unit of a line item.
type Basis string

const (
	BasisPerJob          Basis = "per job"
	BasisPerLine         Basis = "per line"
	BasisPerWord         Basis = "per word"
	BasisPerFinishedHour Basis = "per finished hour"
	BasisPerSession      Basis = "per session"
	BasisPerHour         Basis = "per hour"
)

// Bases lists the billing bases in menu order.
var Bases = []Basis{BasisPerJob, BasisPerLine, BasisPerWord, BasisPerFinishedHour, BasisPerSession, BasisPerHour}

// ParseBasis accepts "per hour", "per-hour" and "per_hour" spellings; unknown input yields "".
func ParseBasis(s string) Basis {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	norm = strings.Join(strings.Fields(norm), " ")
	for _, b := range Bases {
		if string(b) == norm {
			return b
		}
	}
	return ""
}

// HourBased reports whether quantities are fractional hours.
func (b Basis) HourBased() bool {
	return b == BasisPerHour || b == BasisPerFinishedHour
}

// BankCountry selects which bank detail variant is active.
type BankCountry string

const (
	BankCountryUK BankCountry = "UK"
	BankCountryUS BankCountry = "US"
)

// ParseBankCountry defaults anything other than US to UK.
func ParseBankCountry(s string) BankCountry {
	if strings.EqualFold(strings.TrimSpace(s), "US") {
		return BankCountryUS
	}
	return BankCountryUK
}

// DueDateRule selects how the due date is derived from the payment terms.
type DueDateRule string

const (
	DueDateNet       DueDateRule = "net"       // invoice date + terms
	DueDateInclusive DueDateRule = "inclusive" // invoice date + (terms - 1), never before the invoice date
)

// ParseDueDateRule returns false for unknown rules.
func ParseDueDateRule(s string) (DueDateRule, bool) {
	switch DueDateRule(strings.ToLower(strings.TrimSpace(s))) {
	case DueDateNet:
		return DueDateNet, true
	case DueDateInclusive:
		return DueDateInclusive, true
	}
	return "", false
}
