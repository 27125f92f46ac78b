package entity

import (
	"context"
	"time"

	"crewtransit/internal/core/apperror"
)

// Document is the base type for business transactions.
// Examples: ServiceRecord, Invoice.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}

// EffectiveDate returns the business date truncated to a UTC calendar day.
// Persisted reports and invoice grouping key off this value, never the
// creation timestamp.
func (d *Document) EffectiveDate() time.Time {
	return d.Date.UTC().Truncate(24 * time.Hour)
}
