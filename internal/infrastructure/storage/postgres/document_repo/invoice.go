package document_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/id"
	"crewtransit/internal/domain"
	"crewtransit/internal/domain/documents/invoice"
	"crewtransit/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable           = "doc_invoices"
	invoiceAdjustmentsTable = "doc_invoice_adjustments"
)

// InvoiceRepo implements invoice.Repository. Number uniqueness rides on a
// unique index over lower(number); Create reports a violation as a duplicate.
type InvoiceRepo struct {
	*BaseDocumentRepo[*invoice.Invoice]
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*invoice.Invoice](
			txManager,
			invoicesTable,
			postgres.ExtractDBColumns[invoice.Invoice](),
			func() *invoice.Invoice { return &invoice.Invoice{} },
		),
	}
}

// List retrieves invoices with filtering.
func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	result := domain.ListResult[*invoice.Invoice]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.ClientCode != nil {
		q = q.Where(squirrel.Eq{"client_code": *filter.ClientCode})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	err := r.countAndPage(ctx, q, filter.OrderBy, filter.Limit, filter.Offset, &result.TotalCount, &result.Items)
	if err != nil {
		return result, err
	}

	return result, nil
}

// ExistsByNumber checks the normalized number against all invoices,
// finalized and draft alike.
func (r *InvoiceRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	sql := "SELECT EXISTS(SELECT 1 FROM " + invoicesTable + " WHERE lower(number) = $1)"

	var exists bool
	err := r.querier(ctx).QueryRow(ctx, sql, strings.ToLower(strings.TrimSpace(number))).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by number: %w", err)
	}

	return exists, nil
}

// MarkFinalized flips draft to finalized conditionally. Returns false
// without error when the row is no longer in draft.
func (r *InvoiceRepo) MarkFinalized(ctx context.Context, invID id.ID, protocolID string, at time.Time) (bool, error) {
	q := r.Builder().
		Update(invoicesTable).
		Set("status", invoice.StatusFinalized).
		Set("export_protocol_id", protocolID).
		Set("finalized_at", at).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": invID}).
		Where(squirrel.Eq{"status": invoice.StatusDraft})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build mark finalized: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("mark finalized: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Delete removes a draft invoice row and its adjustment lines. The status
// guard in the WHERE clause is the last line of defense: a finalized row is
// never touched even if the service-layer check was raced past.
func (r *InvoiceRepo) Delete(ctx context.Context, invID id.ID) error {
	querier := r.querier(ctx)

	deleteLinesSQL := "DELETE FROM " + invoiceAdjustmentsTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteLinesSQL, invID); err != nil {
		return fmt.Errorf("delete adjustment lines: %w", err)
	}

	q := r.Builder().
		Delete(invoicesTable).
		Where(squirrel.Eq{"id": invID}).
		Where(squirrel.Eq{"status": invoice.StatusDraft})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(invoicesTable, invID.String())
	}

	return nil
}

// GetAdjustments retrieves adjustment lines for an invoice.
func (r *InvoiceRepo) GetAdjustments(ctx context.Context, invID id.ID) ([]invoice.AdjustmentLine, error) {
	q := r.Builder().
		Select("line_id", "line_no", "description", "rate_code", "amount").
		From(invoiceAdjustmentsTable).
		Where(squirrel.Eq{"document_id": invID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []invoice.AdjustmentLine
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get adjustments: %w", err)
	}

	return lines, nil
}

// SaveAdjustments replaces adjustment lines (delete existing + insert new).
func (r *InvoiceRepo) SaveAdjustments(ctx context.Context, invID id.ID, lines []invoice.AdjustmentLine) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + invoiceAdjustmentsTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, invID); err != nil {
		return fmt.Errorf("delete existing adjustments: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(invoiceAdjustmentsTable).
		Columns("line_id", "document_id", "line_no", "description", "rate_code", "amount")

	for _, line := range lines {
		q = q.Values(line.LineID, invID, line.LineNo, line.Description, line.RateCode, line.Amount)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert adjustments: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert adjustments: %w", err)
	}

	return nil
}
