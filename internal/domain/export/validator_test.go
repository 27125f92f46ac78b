package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewtransit/internal/core/types"
)

func validDocument() *Document {
	return &Document{
		Header: Header{
			ProtocolID:   "PRT-2026-0001",
			CompanyCode:  "CT01",
			Currency:     "USD",
			DocumentDate: time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		},
		Customer: Customer{
			ExportID: "0001002345",
			Amount:   types.MustMoney("405.00"),
		},
		Lines: []Line{
			{
				RateCode:           "TRNSP-INC",
				Amount:             types.MustMoney("405.00"),
				CostCenter:         "CC-4710",
				ServiceDescription: "Crew transfers April 2026",
				RouteDescription:   "HOTEL-PTY > PORT-BALBOA",
			},
		},
	}
}

func TestValidate_ValidDocument(t *testing.T) {
	v := NewValidator(nil)

	res := v.Validate(validDocument())
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestValidate_EmptyLinesAlwaysInvalid(t *testing.T) {
	v := NewValidator(nil)

	doc := validDocument()
	doc.Lines = nil

	res := v.Validate(doc)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "document has no line items")
}

func TestValidate_MissingHeaderFields(t *testing.T) {
	v := NewValidator(nil)

	doc := validDocument()
	doc.Header.ProtocolID = ""
	doc.Header.CompanyCode = ""
	doc.Header.Currency = "US"

	res := v.Validate(doc)
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 3)
}

func TestValidate_MissingLineFields(t *testing.T) {
	v := NewValidator(nil)

	doc := validDocument()
	doc.Lines[0].RateCode = ""
	doc.Lines[0].CostCenter = ""

	res := v.Validate(doc)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "line 1: rate code is required")
	assert.Contains(t, res.Errors, "line 1: cost center is required")
}

func TestValidate_CurrencyMismatchIsWarning(t *testing.T) {
	v := NewValidator(nil)

	doc := validDocument()
	doc.Lines[0].Currency = "EUR"

	res := v.Validate(doc)
	assert.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "EUR")
}

func TestValidate_Pure(t *testing.T) {
	v := NewValidator(nil)

	doc := validDocument()
	before := *doc

	first := v.Validate(doc)
	second := v.Validate(doc)

	assert.Equal(t, first, second)
	assert.Equal(t, before.Header, doc.Header)
	assert.Equal(t, before.Customer, doc.Customer)
}

func TestRuleSet_DefaultRules(t *testing.T) {
	rules, err := NewRuleSet(DefaultRules())
	require.NoError(t, err)
	v := NewValidator(rules)

	res := v.Validate(validDocument())
	assert.True(t, res.Valid)

	doc := validDocument()
	doc.Header.CompanyCode = "ct-lowercase!"
	res = v.Validate(doc)
	assert.True(t, res.Valid, "format rule is a warning, not an error")
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "company_code_format")
}

func TestRuleSet_ErrorSeverityBlocks(t *testing.T) {
	rules, err := NewRuleSet([]Rule{
		{
			Name:       "single_line_only",
			Expression: `size(doc.lines) == 1`,
			Severity:   SeverityError,
			Message:    "expected exactly one line",
		},
	})
	require.NoError(t, err)
	v := NewValidator(rules)

	doc := validDocument()
	doc.Lines = append(doc.Lines, doc.Lines[0])

	res := v.Validate(doc)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "single_line_only")
}

func TestRuleSet_BadExpressionFailsAtConstruction(t *testing.T) {
	_, err := NewRuleSet([]Rule{
		{Name: "broken", Expression: `size(`, Severity: SeverityError},
	})
	require.Error(t, err)
}
