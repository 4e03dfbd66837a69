package codec

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoicer/internal/money"
	"invoicer/pkg/models"
)

// DecodeOptions control how a payload is turned back into a Snapshot.
type DecodeOptions struct {
	// Prefill increments the recovered invoice number so the new invoice does not
	// reuse the prior document's number.
	Prefill bool
}

// Fields is the flat key/value view of a payload. Values are unescaped and the
// sentinel has been replaced with "".
type Fields map[string]string

// ParseFields splits a canonical payload line into its fields. Tokens without '='
// or whose key does not match the key grammar are dropped. When a key repeats,
// the last value wins.
func ParseFields(line string) Fields {
	fields := Fields{}
	for _, token := range splitPairs(line) {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if !ValidKey(key) {
			continue
		}
		value = strings.ReplaceAll(value, DelimiterEscape, Delimiter)
		if strings.EqualFold(strings.TrimSpace(value), Sentinel) {
			value = ""
		}
		fields[key] = value
	}
	return fields
}

// Decode rebuilds a Snapshot from a canonical payload line. It never fails:
// malformed pairs are skipped and unparseable numbers fall back to zero (or nil
// for the optional terms). The second return value is false when the line holds
// no recognizable pair, which callers treat as "no prior document".
func Decode(line string, opts DecodeOptions) (*models.Snapshot, bool) {
	fields := ParseFields(line)
	if len(fields) == 0 {
		return &models.Snapshot{}, false
	}
	return fields.Snapshot(opts), true
}

// Prefill extracts and decodes the payload embedded in raw document text,
// applying the invoice-number increment.
func Prefill(text string) (*models.Snapshot, bool) {
	return Decode(Extract(text), DecodeOptions{Prefill: true})
}

// Version returns the payload format version, or "" for payloads without a tag.
func (f Fields) Version() string {
	return f[keyFormatVersion]
}

// Snapshot assembles the structured Snapshot. Fields absent from the payload keep
// their zero value.
func (f Fields) Snapshot(opts DecodeOptions) *models.Snapshot {
	s := &models.Snapshot{}

	s.Profile = models.Profile{
		Region:        models.ParseRegion(f[keyRegion]),
		LegalName:     f[keyLegalName],
		TradingName:   f[keyTradingName],
		AddressLines:  f.addressLines(roleYour),
		Email:         f[keyEmail],
		Phone:         f[keyPhone],
		Mobile:        f[keyMobile],
		CompanyNumber: f[keyCompanyNumber],
		VATNumber:     f[keyVATNumber],
		TaxID:         f[keyTaxID],
	}
	s.Profile.ApplyRegion()

	s.Client = models.Client{
		ContactName:  f[keyClientContactName],
		CompanyName:  f[keyClientCompanyName],
		AddressLines: f.addressLines(roleClient),
		Email:        f[keyClientEmail],
		POReference:  f[keyClientPOReference],
		Notes:        f[keyClientNotes],
	}

	s.Invoice = models.InvoiceMeta{
		Number:         f[keyInvoiceNumber],
		Date:           parseDate(f[keyInvoiceDate]),
		TermsDays:      parseTerms(f[keyTermsDays]),
		Currency:       models.ParseCurrency(f[keyCurrency]),
		TaxLabelMode:   models.ParseTaxLabelMode(f[keyTaxLabelMode]),
		TaxLabelCustom: f[keyTaxLabelCustom],
		TaxRate:        parseRate(f[keyTaxRate]),
	}
	if opts.Prefill {
		s.Invoice.Number = NextInvoiceNumber(s.Invoice.Number)
	}

	s.Items = f.lineItems()

	s.Payments = models.PaymentConfig{
		AcceptWise:   parseBool(f[keyAcceptWise]),
		AcceptStripe: parseBool(f[keyAcceptStripe]),
		AcceptPayPal: parseBool(f[keyAcceptPayPal]),
		AcceptBank:   parseBool(f[keyAcceptBank]),
		WiseText:     f[keyWiseText],
		StripeText:   f[keyStripeText],
		PayPalText:   f[keyPayPalText],
		BankCountry:  models.ParseBankCountry(f[keyBankCountry]),
		BankUK: models.BankUK{
			AccountName:   f[keyBankUKAccountName],
			SortCode:      f[keyBankUKSortCode],
			AccountNumber: f[keyBankUKAccountNumber],
			IBAN:          f[keyBankUKIBAN],
			BIC:           f[keyBankUKBIC],
		},
		BankUS: models.BankUS{
			AccountName:   f[keyBankUSAccountName],
			RoutingNumber: f[keyBankUSRoutingNumber],
			AccountNumber: f[keyBankUSAccountNumber],
			Notes:         f[keyBankUSNotes],
		},
		FooterNotes: f[keyFooterNotes],
	}

	return s
}

// splitPairs splits line on the delimiter, leaving escaped delimiters inside
// their values.
func splitPairs(line string) []string {
	var tokens []string
	start := 0
	for i := 0; i < len(line); i++ {
		if line[i] != Delimiter[0] || strings.HasPrefix(line[i:], DelimiterEscape) {
			continue
		}
		tokens = append(tokens, line[start:i])
		start = i + 1
	}
	return append(tokens, line[start:])
}

// addressLines collects the address lines for role ordered by their numeric
// suffix. Gaps in the numbering are tolerated.
func (f Fields) addressLines(role string) []string {
	type indexed struct {
		n     int
		value string
	}
	var found []indexed
	for key, value := range f {
		m := addressKeyExpr.FindStringSubmatch(key)
		if m == nil || m[1] != role {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		found = append(found, indexed{n: n, value: value})
	}
	if len(found) == 0 {
		return nil
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })
	lines := make([]string, len(found))
	for i, a := range found {
		lines[i] = a.value
	}
	return lines
}

// lineItems builds one LineItem per distinct one-based item index, in index order.
func (f Fields) lineItems() []models.LineItem {
	seen := map[int]bool{}
	var indices []int
	for key := range f {
		m := itemKeyExpr.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		indices = append(indices, n)
	}
	if len(indices) == 0 {
		return nil
	}
	sort.Ints(indices)

	items := make([]models.LineItem, 0, len(indices))
	for _, n := range indices {
		items = append(items, models.LineItem{
			Basis:       models.ParseBasis(f[itemKey(n, itemBasis)]),
			Description: f[itemKey(n, itemDescription)],
			Quantity:    parseAmount(f[itemKey(n, itemQtyDisplay)]),
			Rate:        parseAmount(f[itemKey(n, itemRateDisplay)]),
		})
	}
	return items
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func parseDate(v string) time.Time {
	t, err := time.Parse(dateParseLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTerms(v string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// parseAmount reads a displayed amount, ignoring currency symbols.
func parseAmount(v string) decimal.Decimal {
	v = strings.Trim(strings.TrimSpace(v), "£$€")
	d, err := money.Parse(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseRate(v string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%")))
	if err != nil {
		return decimal.Zero
	}
	return d
}
