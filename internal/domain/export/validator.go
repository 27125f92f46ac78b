package export

import (
	"fmt"
	"strings"
)

// Validator checks export documents against the required-field schema and an
// optional rule set. Validate performs no I/O and never mutates the
// document, so it serves both as the finalization gate and as a standalone
// diagnostic endpoint.
type Validator struct {
	rules *RuleSet
}

// NewValidator creates a Validator. rules may be nil.
func NewValidator(rules *RuleSet) *Validator {
	return &Validator{rules: rules}
}

// Validate runs all schema checks and collects every finding instead of
// stopping at the first, so the caller can fix the document in one pass.
func (v *Validator) Validate(doc *Document) Result {
	var errs, warnings []string

	if doc == nil {
		return Result{Valid: false, Errors: []string{"document is nil"}}
	}

	errs = append(errs, checkHeader(doc.Header)...)
	errs = append(errs, checkCustomer(doc.Customer)...)

	if len(doc.Lines) == 0 {
		errs = append(errs, "document has no line items")
	}
	for i, line := range doc.Lines {
		errs = append(errs, checkLine(i+1, line)...)

		if line.Currency != "" && !strings.EqualFold(line.Currency, doc.Header.Currency) {
			warnings = append(warnings, fmt.Sprintf(
				"line %d: currency %s differs from document currency %s",
				i+1, line.Currency, doc.Header.Currency))
		}
	}

	if v.rules != nil {
		ruleErrs, ruleWarnings := v.rules.Evaluate(doc)
		errs = append(errs, ruleErrs...)
		warnings = append(warnings, ruleWarnings...)
	}

	return Result{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

func checkHeader(h Header) []string {
	var errs []string
	if h.ProtocolID == "" {
		errs = append(errs, "header: protocol ID is required")
	}
	if h.CompanyCode == "" {
		errs = append(errs, "header: company code is required")
	}
	if len(h.Currency) != 3 {
		errs = append(errs, "header: currency must be a 3-letter ISO code")
	}
	if h.DocumentDate.IsZero() {
		errs = append(errs, "header: document date is required")
	}
	return errs
}

func checkCustomer(c Customer) []string {
	var errs []string
	if c.ExportID == "" {
		errs = append(errs, "customer: export ID is required")
	}
	if c.Amount.IsNegative() {
		errs = append(errs, "customer: amount cannot be negative")
	}
	return errs
}

func checkLine(no int, l Line) []string {
	var errs []string
	if l.RateCode == "" {
		errs = append(errs, fmt.Sprintf("line %d: rate code is required", no))
	}
	if l.CostCenter == "" {
		errs = append(errs, fmt.Sprintf("line %d: cost center is required", no))
	}
	if l.ServiceDescription == "" {
		errs = append(errs, fmt.Sprintf("line %d: service description is required", no))
	}
	if l.RouteDescription == "" {
		errs = append(errs, fmt.Sprintf("line %d: route description is required", no))
	}
	if l.Amount.IsNegative() {
		errs = append(errs, fmt.Sprintf("line %d: amount cannot be negative", no))
	}
	return errs
}
