// Package ratecode provides the RateCode catalog: income and rebate codes
// stamped onto export document line items for downstream ERP routing.
package ratecode

import (
	"context"
	"strings"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/entity"
)

// Kind defines the accounting direction of a rate code.
type Kind string

const (
	KindIncome Kind = "income"
	KindRebate Kind = "rebate"
)

// RateCode represents one accounting code.
type RateCode struct {
	entity.Catalog

	// Kind is the accounting direction
	Kind Kind `db:"kind" json:"kind"`

	// CostCenter routes the amount inside the client's ERP
	CostCenter string `db:"cost_center" json:"costCenter"`

	// ProfitCenter is the optional profit-center counterpart
	ProfitCenter string `db:"profit_center" json:"profitCenter,omitempty"`
}

// New creates a new RateCode.
func New(code, name string, kind Kind, costCenter string) *RateCode {
	return &RateCode{
		Catalog:    entity.NewCatalog(code, name),
		Kind:       kind,
		CostCenter: costCenter,
	}
}

// Normalize applies write-boundary canonicalization.
func (r *RateCode) Normalize() {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	r.Name = strings.TrimSpace(r.Name)
	r.CostCenter = strings.TrimSpace(r.CostCenter)
}

// Validate implements entity.Validatable.
func (r *RateCode) Validate(ctx context.Context) error {
	if err := r.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch r.Kind {
	case KindIncome, KindRebate:
	default:
		return apperror.NewValidation("invalid rate code kind").
			WithDetail("field", "kind").
			WithDetail("value", string(r.Kind))
	}

	if r.CostCenter == "" {
		return apperror.NewValidation("cost center is required").
			WithDetail("field", "costCenter")
	}

	return nil
}
