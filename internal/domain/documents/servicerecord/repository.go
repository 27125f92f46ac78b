package servicerecord

import (
	"context"
	"time"

	"crewtransit/internal/core/id"
	"crewtransit/internal/domain"
)

// Repository defines persistence operations for service records. The
// invoice-linking operations are conditional updates: they mutate only when
// the stored row still satisfies the stated precondition, and report via
// LinkResult whether they won. Concurrency control for at-most-one-invoice-
// per-service lives here, not in application locks.
type Repository interface {
	Create(ctx context.Context, rec *ServiceRecord) error
	GetByID(ctx context.Context, recID id.ID) (*ServiceRecord, error)
	GetByNumber(ctx context.Context, number string) (*ServiceRecord, error)
	Update(ctx context.Context, rec *ServiceRecord) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*ServiceRecord], error)

	// UpdateStatus flips status only when the row still holds `from`.
	// Returns false without error when another writer got there first.
	UpdateStatus(ctx context.Context, recID id.ID, from, to Status) (bool, error)

	// LinkToInvoice atomically sets status=prefactured and the invoice
	// reference, but only on rows with status=completed, no invoice, and
	// the version the caller last read.
	LinkToInvoice(ctx context.Context, recID, invoiceID id.ID, version int) (LinkResult, error)

	// MarkInvoiced flips prefactured rows of the given invoice to invoiced.
	// Returns the number of rows flipped.
	MarkInvoiced(ctx context.Context, invoiceID id.ID) (int, error)

	// ReleaseFromInvoice returns prefactured rows of the invoice back to
	// completed and clears the reference. Returns the number of rows released.
	ReleaseFromInvoice(ctx context.Context, invoiceID id.ID) (int, error)

	// CountByInvoice counts rows linked to an invoice with the given status.
	CountByInvoice(ctx context.Context, invoiceID id.ID, status Status) (int, error)

	// Attachment table part
	GetAttachments(ctx context.Context, recID id.ID) ([]Attachment, error)
	SaveAttachments(ctx context.Context, recID id.ID, lines []Attachment) error
}

// LinkResult reports the outcome of a LinkToInvoice attempt.
type LinkResult int

const (
	// Linked means this caller won the conditional update.
	Linked LinkResult = iota
	// AlreadyLinked means the row exists but already carries an invoice.
	AlreadyLinked
	// NotEligible means the row exists but is not in completed status.
	NotEligible
	// StaleVersion means the row is still linkable but was edited after
	// the caller read it.
	StaleVersion
	// NotFound means no such row.
	NotFound
)

// ListFilter narrows service record listings.
type ListFilter struct {
	domain.ListFilter

	ClientCode *string
	Status     *Status
	InvoiceID  *id.ID
	Unlinked   bool
	DateFrom   *time.Time
	DateTo     *time.Time
}
