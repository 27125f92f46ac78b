package invoice

import (
	"context"
	"time"

	"crewtransit/internal/core/id"
	"crewtransit/internal/domain"
)

// Repository defines persistence operations for invoices. Number uniqueness
// is enforced by a unique index on the normalized number; Create surfaces a
// violation as a duplicate error.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, invID id.ID) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)

	// ExistsByNumber checks the normalized number against all invoices.
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// MarkFinalized flips draft → finalized conditionally. Returns false
	// without error when the row is no longer draft.
	MarkFinalized(ctx context.Context, invID id.ID, protocolID string, at time.Time) (bool, error)

	// Delete removes a draft invoice row. Finalized invoices are never
	// deleted; the service layer enforces that before calling.
	Delete(ctx context.Context, invID id.ID) error

	// Adjustment table part
	GetAdjustments(ctx context.Context, invID id.ID) ([]AdjustmentLine, error)
	SaveAdjustments(ctx context.Context, invID id.ID, lines []AdjustmentLine) error
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	domain.ListFilter

	ClientCode *string
	Status     *Status
	DateFrom   *time.Time
	DateTo     *time.Time
}
