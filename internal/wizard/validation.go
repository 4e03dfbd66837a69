package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"invoicer/pkg/models"
)

var maxTaxRate = decimal.NewFromInt(100)

// ValidationError reports one field that blocks leaving a step.
type ValidationError struct {
	Step    Step
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Message)
}

// Validate checks the fields collected by step. It returns nil or the joined
// ValidationErrors for every failing field.
func Validate(step Step, s *models.Snapshot) error {
	if s == nil {
		return &ValidationError{Step: step, Field: "snapshot", Message: "No invoice data."}
	}
	var v validator
	v.step = step

	switch step {
	case StepProfile:
		p := s.Profile
		v.check(p.Region != models.RegionUnset, "profile.region", "Select a region.")
		v.check(p.Heading() != "", "profile.legal_name", "Legal name is required.")
		v.check(strings.TrimSpace(p.Email) != "", "profile.email", "Email is required.")
		v.check(anyLine(p.AddressLines), "profile.address_lines", "Provide at least one address line.")
	case StepClient:
		c := s.Client
		v.check(strings.TrimSpace(c.ContactName) != "" || strings.TrimSpace(c.CompanyName) != "",
			"client.name", "Provide at least a contact person or a company name.")
		v.check(anyLine(c.AddressLines), "client.address_lines", "Provide at least one client address line.")
	case StepItems:
		inv := s.Invoice
		v.check(strings.TrimSpace(inv.Number) != "", "invoice.number", "Invoice number is required.")
		v.check(inv.TermsDays != nil && *inv.TermsDays >= 0, "invoice.terms_days", "Payment terms (days) must be a non-negative integer.")
		v.check(!inv.TaxRate.IsNegative() && inv.TaxRate.LessThanOrEqual(maxTaxRate), "invoice.tax_rate", "Tax rate must be between 0 and 100.")
		v.check(len(s.Items) > 0, "items", "Add at least one line item.")
		for i, it := range s.Items {
			v.check(!it.Quantity.IsNegative(), fmt.Sprintf("items[%d].qty", i), fmt.Sprintf("Item %d: quantity must not be negative.", i+1))
			v.check(!it.Rate.IsNegative(), fmt.Sprintf("items[%d].rate", i), fmt.Sprintf("Item %d: rate must not be negative.", i+1))
		}
	case StepPayment:
		pay := s.Payments
		v.check(pay.AcceptWise || pay.AcceptStripe || pay.AcceptPayPal || pay.AcceptBank || strings.TrimSpace(pay.FooterNotes) != "",
			"payments", "Provide at least one payment method or footer note.")
	}
	return errors.Join(v.errs...)
}

// ValidateAll validates every data-collecting step in order.
func ValidateAll(s *models.Snapshot) error {
	var errs []error
	for step := StepProfile; step < StepPreview; step++ {
		if err := Validate(step, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Errors flattens err into the ValidationErrors it contains, in order.
func Errors(err error) []*ValidationError {
	var out []*ValidationError
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		var ve *ValidationError
		if errors.As(err, &ve) {
			out = append(out, ve)
		}
	}
	walk(err)
	return out
}

// Fields lists the fields named by the ValidationErrors inside err.
func Fields(err error) []string {
	var fields []string
	for _, ve := range Errors(err) {
		fields = append(fields, ve.Field)
	}
	return fields
}

type validator struct {
	step Step
	errs []error
}

func (v *validator) check(ok bool, field, message string) {
	if !ok {
		v.errs = append(v.errs, &ValidationError{Step: v.step, Field: field, Message: message})
	}
}

func anyLine(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}
