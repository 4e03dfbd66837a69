package codec

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"invoicer/pkg/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Profile: models.Profile{
			Region:        models.RegionUK,
			LegalName:     "Acme Studio Ltd",
			TradingName:   "Acme",
			AddressLines:  []string{"1 Road", "City", "AB1 2CD"},
			Email:         "hello@acme.test",
			Phone:         "01234 567890",
			CompanyNumber: "01234567",
			VATNumber:     "GB123456789",
		},
		Client: models.Client{
			ContactName:  "Jo Bloggs",
			CompanyName:  "Bloggs & Sons",
			AddressLines: []string{"9 High Street", "Town"},
			Email:        "jo@bloggs.test",
			POReference:  "PO-77",
			Notes:        "Thanks for your business",
		},
		Invoice: models.InvoiceMeta{
			Number:       "INV-00209",
			Date:         time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC),
			TermsDays:    models.IntPtr(30),
			Currency:     models.CurrencyGBP,
			TaxLabelMode: models.TaxLabelVAT,
			TaxRate:      decimal.NewFromInt(20),
		},
		Items: []models.LineItem{
			{Basis: models.BasisPerHour, Description: "Editing & proofreading", Quantity: dec("1.5"), Rate: dec("40.00")},
			{Basis: models.BasisPerWord, Description: "Translation", Quantity: dec("1200"), Rate: dec("0.08")},
		},
		Payments: models.PaymentConfig{
			AcceptWise:  true,
			WiseText:    "wise.com/pay/acme",
			AcceptBank:  true,
			BankCountry: models.BankCountryUK,
			BankUK: models.BankUK{
				AccountName:   "Acme Studio Ltd",
				SortCode:      "12-34-56",
				AccountNumber: "12345678",
			},
			FooterNotes: "Payment within 30 days please",
		},
	}
}

func assertDecimal(t *testing.T, want, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, want.Equal(got), "%s: want %s, got %s", field, want, got)
}

// assertSameSnapshot compares every field except the invoice number.
func assertSameSnapshot(t *testing.T, want, got *models.Snapshot) {
	t.Helper()
	assert.Equal(t, want.Profile, got.Profile)
	assert.Equal(t, want.Client, got.Client)
	assert.Equal(t, want.Payments, got.Payments)

	assert.True(t, want.Invoice.Date.Equal(got.Invoice.Date), "invoice date: want %s, got %s", want.Invoice.Date, got.Invoice.Date)
	assert.Equal(t, want.Invoice.TermsDays, got.Invoice.TermsDays)
	assert.Equal(t, want.Invoice.Currency, got.Invoice.Currency)
	assert.Equal(t, want.Invoice.TaxLabelMode, got.Invoice.TaxLabelMode)
	assert.Equal(t, want.Invoice.TaxLabelCustom, got.Invoice.TaxLabelCustom)
	assertDecimal(t, want.Invoice.TaxRate, got.Invoice.TaxRate, "tax rate")

	if assert.Len(t, got.Items, len(want.Items)) {
		for i := range want.Items {
			assert.Equal(t, want.Items[i].Basis, got.Items[i].Basis)
			assert.Equal(t, want.Items[i].Description, got.Items[i].Description)
			assertDecimal(t, want.Items[i].Quantity, got.Items[i].Quantity, "quantity")
			assertDecimal(t, want.Items[i].Rate, got.Items[i].Rate, "rate")
		}
	}
}
