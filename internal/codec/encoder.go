package codec

import (
	"strconv"
	"strings"

	"invoicer/internal/money"
	"invoicer/pkg/models"
)

// Pair is one key/value entry of the payload, in its unescaped form.
type Pair struct {
	Key   string
	Value string
}

// Encode flattens s into the ordered list of payload pairs.
//
// Order: format version, region, names, profile address lines, contact fields,
// company identifiers, client fields, client address lines, invoice metadata,
// one six-field block per line item, payment flags and text, the active bank
// country's fields, footer notes.
func Encode(s *models.Snapshot) []Pair {
	if s == nil {
		return nil
	}
	e := &encoder{}

	profile := s.Profile
	profile.ApplyRegion()

	e.add(keyFormatVersion, FormatVersion)
	e.add(keyRegion, string(profile.Region))
	e.add(keyLegalName, profile.LegalName)
	e.add(keyTradingName, profile.TradingName)
	for i, line := range profile.AddressLines {
		e.add(addressKey(roleYour, i), line)
	}
	e.add(keyEmail, profile.Email)
	e.add(keyPhone, profile.Phone)
	e.add(keyMobile, profile.Mobile)
	e.add(keyCompanyNumber, profile.CompanyNumber)
	e.add(keyVATNumber, profile.VATNumber)
	e.add(keyTaxID, profile.TaxID)

	client := s.Client
	e.add(keyClientContactName, client.ContactName)
	e.add(keyClientCompanyName, client.CompanyName)
	for i, line := range client.AddressLines {
		e.add(addressKey(roleClient, i), line)
	}
	e.add(keyClientEmail, client.Email)
	e.add(keyClientPOReference, client.POReference)
	e.add(keyClientNotes, client.Notes)

	inv := s.Invoice
	e.add(keyInvoiceNumber, inv.Number)
	if inv.Date.IsZero() {
		e.add(keyInvoiceDate, "")
	} else {
		e.add(keyInvoiceDate, inv.Date.Format(DateLayout))
	}
	if inv.TermsDays == nil {
		e.add(keyTermsDays, "")
	} else {
		e.add(keyTermsDays, strconv.Itoa(*inv.TermsDays))
	}
	e.add(keyCurrency, string(inv.Currency))
	e.add(keyTaxLabelMode, string(inv.TaxLabelMode))
	e.add(keyTaxLabelCustom, inv.TaxLabelCustom)
	e.add(keyTaxRate, inv.TaxRate.String())

	for i, it := range s.Items {
		n := i + 1
		e.add(itemKey(n, itemNumber), strconv.Itoa(n))
		e.add(itemKey(n, itemBasis), string(it.Basis))
		e.add(itemKey(n, itemDescription), it.Description)
		e.add(itemKey(n, itemQtyDisplay), money.Format(it.Quantity))
		e.add(itemKey(n, itemRateDisplay), money.Format(it.Rate))
		e.add(itemKey(n, itemLineTotalDisplay), money.Format(money.LineTotal(it.Quantity, it.Rate)))
	}

	pay := s.Payments
	e.addBool(keyAcceptWise, pay.AcceptWise)
	e.add(keyWiseText, pay.WiseText)
	e.addBool(keyAcceptStripe, pay.AcceptStripe)
	e.add(keyStripeText, pay.StripeText)
	e.addBool(keyAcceptPayPal, pay.AcceptPayPal)
	e.add(keyPayPalText, pay.PayPalText)
	e.addBool(keyAcceptBank, pay.AcceptBank)
	e.add(keyBankCountry, string(pay.BankCountry))
	if pay.BankCountry == models.BankCountryUS {
		e.add(keyBankUSAccountName, pay.BankUS.AccountName)
		e.add(keyBankUSRoutingNumber, pay.BankUS.RoutingNumber)
		e.add(keyBankUSAccountNumber, pay.BankUS.AccountNumber)
		e.add(keyBankUSNotes, pay.BankUS.Notes)
	} else {
		e.add(keyBankUKAccountName, pay.BankUK.AccountName)
		e.add(keyBankUKSortCode, pay.BankUK.SortCode)
		e.add(keyBankUKAccountNumber, pay.BankUK.AccountNumber)
		e.add(keyBankUKIBAN, pay.BankUK.IBAN)
		e.add(keyBankUKBIC, pay.BankUK.BIC)
	}
	e.add(keyFooterNotes, pay.FooterNotes)

	return e.pairs
}

// EncodeLine returns the payload line for s.
func EncodeLine(s *models.Snapshot) string {
	return Join(Encode(s))
}

// Join serializes pairs into one delimited line, substituting the sentinel for
// empty values and escaping the delimiter inside values.
func Join(pairs []Pair) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteString(Delimiter)
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(encodeValue(p.Value))
	}
	return b.String()
}

type encoder struct {
	pairs []Pair
}

func (e *encoder) add(key, value string) {
	e.pairs = append(e.pairs, Pair{Key: key, Value: value})
}

func (e *encoder) addBool(key string, v bool) {
	if v {
		e.add(key, "True")
		return
	}
	e.add(key, "False")
}

// encodeValue applies the scalar rules. Values are folded and trimmed the same
// way the extractor normalizes them, so the payload is a single line.
func encodeValue(v string) string {
	v = strings.TrimSpace(collapseLineBreaks(v))
	if v == "" {
		return Sentinel
	}
	return strings.ReplaceAll(v, Delimiter, DelimiterEscape)
}
