// Package invoice provides the Invoice document: aggregation of completed
// service records under one client, through draft and finalized states.
package invoice

import (
	"context"
	"strings"
	"time"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/entity"
	"crewtransit/internal/core/id"
	"crewtransit/internal/core/types"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusFinalized Status = "finalized"
)

// Invoice groups prefactured service records for one client. The document
// Number field holds the invoice number, stored in canonical upper case so
// uniqueness is case-insensitive. Services reference the invoice, not the
// other way around; the invoice owns the membership.
type Invoice struct {
	entity.Document

	// ClientCode references the Client catalog
	ClientCode string `db:"client_code" json:"clientCode"`

	Status Status `db:"status" json:"status"`

	// Currency of the invoice totals
	Currency string `db:"currency" json:"currency"`

	// ServicesTotal is the sum of linked service prices
	ServicesTotal types.Money `db:"services_total" json:"servicesTotal"`

	// AdjustmentsTotal is the sum of the adjustment lines
	AdjustmentsTotal types.Money `db:"adjustments_total" json:"adjustmentsTotal"`

	// TotalAmount = ServicesTotal + AdjustmentsTotal
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// ExportProtocolID is set at finalization from the accepted document
	ExportProtocolID string `db:"export_protocol_id" json:"exportProtocolId,omitempty"`

	// FinalizedAt is set when the export document is accepted
	FinalizedAt *time.Time `db:"finalized_at" json:"finalizedAt,omitempty"`

	// Table part: flat-fee adjustments not tied to a single service
	Adjustments []AdjustmentLine `db:"-" json:"adjustments,omitempty"`

	// ServiceIDs is populated on load for convenience; membership is stored
	// on the service records
	ServiceIDs []id.ID `db:"-" json:"serviceIds,omitempty"`
}

// AdjustmentLine is a declared flat fee added to the invoice total, for
// charges not attributable to one service (e.g. a port access fee).
type AdjustmentLine struct {
	LineID      id.ID       `db:"line_id" json:"lineId"`
	LineNo      int         `db:"line_no" json:"lineNo"`
	Description string      `db:"description" json:"description"`
	RateCode    string      `db:"rate_code" json:"rateCode"`
	Amount      types.Money `db:"amount" json:"amount"`
}

// NormalizeNumber returns the canonical form of an invoice number.
func NormalizeNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}

// New creates a draft invoice.
func New(clientCode, number, currency string) *Invoice {
	doc := entity.NewDocument()
	doc.Number = NormalizeNumber(number)
	return &Invoice{
		Document:         doc,
		ClientCode:       strings.ToUpper(strings.TrimSpace(clientCode)),
		Status:           StatusDraft,
		Currency:         currency,
		ServicesTotal:    types.Zero(),
		AdjustmentsTotal: types.Zero(),
		TotalAmount:      types.Zero(),
	}
}

// SetTotals stores the computed totals.
func (i *Invoice) SetTotals(services, adjustments types.Money) {
	i.ServicesTotal = services
	i.AdjustmentsTotal = adjustments
	i.TotalAmount = services.Add(adjustments)
}

// Validate implements entity.Validatable.
func (i *Invoice) Validate(ctx context.Context) error {
	if err := i.Document.Validate(ctx); err != nil {
		return err
	}

	if i.Number == "" {
		return apperror.NewValidation("invoice number is required").
			WithDetail("field", "number")
	}
	if i.ClientCode == "" {
		return apperror.NewValidation("client is required").
			WithDetail("field", "clientCode")
	}
	if len(i.Currency) != 3 {
		return apperror.NewValidation("currency must be a 3-letter ISO code").
			WithDetail("field", "currency")
	}

	switch i.Status {
	case StatusDraft, StatusFinalized:
	default:
		return apperror.NewValidation("unknown invoice status").
			WithDetail("field", "status").
			WithDetail("value", string(i.Status))
	}

	if !i.TotalAmount.Equal(i.ServicesTotal.Add(i.AdjustmentsTotal)) {
		return apperror.NewValidation("total does not match services plus adjustments").
			WithDetail("field", "totalAmount")
	}

	for n, line := range i.Adjustments {
		if line.Description == "" {
			return apperror.NewValidation("adjustment description is required").
				WithDetail("field", "adjustments").
				WithDetail("lineNo", n+1)
		}
		if line.RateCode == "" {
			return apperror.NewValidation("adjustment rate code is required").
				WithDetail("field", "adjustments").
				WithDetail("lineNo", n+1)
		}
	}

	return nil
}

// IsFinalized reports whether the invoice left draft.
func (i *Invoice) IsFinalized() bool {
	return i.Status == StatusFinalized
}
