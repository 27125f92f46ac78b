package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"crewtransit/internal/core/id"
	"crewtransit/internal/domain"
	"crewtransit/internal/domain/documents/servicerecord"
	"crewtransit/internal/infrastructure/storage/postgres"
)

const (
	serviceRecordsTable          = "doc_service_records"
	serviceRecordAttachmentTable = "doc_service_record_attachments"
)

var serviceRecordAttachmentCols = []string{
	"line_id", "document_id", "line_no", "file_name", "file_ref", "added_by", "added_at",
}

// ServiceRecordRepo implements servicerecord.Repository.
type ServiceRecordRepo struct {
	*BaseDocumentRepo[*servicerecord.ServiceRecord]

	batch *postgres.BatchInserter
}

// NewServiceRecordRepo creates a new service record repository.
func NewServiceRecordRepo(txManager *postgres.TxManager) *ServiceRecordRepo {
	return &ServiceRecordRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*servicerecord.ServiceRecord](
			txManager,
			serviceRecordsTable,
			postgres.ExtractDBColumns[servicerecord.ServiceRecord](),
			func() *servicerecord.ServiceRecord { return &servicerecord.ServiceRecord{} },
		),
		batch: postgres.NewBatchInserter(txManager),
	}
}

// List retrieves service records with filtering.
func (r *ServiceRecordRepo) List(ctx context.Context, filter servicerecord.ListFilter) (domain.ListResult[*servicerecord.ServiceRecord], error) {
	result := domain.ListResult[*servicerecord.ServiceRecord]{
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

	if filter.InvoiceID != nil {
		q = q.Where(squirrel.Eq{"invoice_id": *filter.InvoiceID})
	}

	if filter.Unlinked {
		q = q.Where(squirrel.Eq{"invoice_id": nil})
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

// UpdateStatus flips status only when the row still holds `from`. A zero
// row count means another writer changed the row first; that is reported
// as false, not an error, so the caller decides how to react.
func (r *ServiceRecordRepo) UpdateStatus(ctx context.Context, recID id.ID, from, to servicerecord.Status) (bool, error) {
	q := r.Builder().
		Update(serviceRecordsTable).
		Set("status", to).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": recID}).
		Where(squirrel.Eq{"status": from})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build update status: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("update status: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// LinkToInvoice atomically claims a completed, unlinked record for the
// invoice. The WHERE clause is the whole concurrency story: two aggregations
// racing for the same record produce exactly one winner, and the version
// guard fails the claim when the record was edited after the caller read it.
func (r *ServiceRecordRepo) LinkToInvoice(ctx context.Context, recID, invoiceID id.ID, version int) (servicerecord.LinkResult, error) {
	q := r.Builder().
		Update(serviceRecordsTable).
		Set("status", servicerecord.StatusPrefactured).
		Set("invoice_id", invoiceID).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": recID}).
		Where(squirrel.Eq{"status": servicerecord.StatusCompleted}).
		Where(squirrel.Eq{"invoice_id": nil}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return servicerecord.NotFound, fmt.Errorf("build link: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return servicerecord.NotFound, fmt.Errorf("link to invoice: %w", err)
	}

	if result.RowsAffected() > 0 {
		return servicerecord.Linked, nil
	}

	// Lost or ineligible. Probe the row to classify the outcome.
	return r.classifyLinkFailure(ctx, recID)
}

func (r *ServiceRecordRepo) classifyLinkFailure(ctx context.Context, recID id.ID) (servicerecord.LinkResult, error) {
	probeSQL := "SELECT invoice_id, status FROM " + serviceRecordsTable + " WHERE id = $1 AND deletion_mark = FALSE"

	var linkedInvoice *id.ID
	var status servicerecord.Status
	err := r.querier(ctx).QueryRow(ctx, probeSQL, recID).Scan(&linkedInvoice, &status)
	if err == pgx.ErrNoRows {
		return servicerecord.NotFound, nil
	}
	if err != nil {
		return servicerecord.NotFound, fmt.Errorf("probe record: %w", err)
	}

	if linkedInvoice != nil {
		return servicerecord.AlreadyLinked, nil
	}
	if status != servicerecord.StatusCompleted {
		return servicerecord.NotEligible, nil
	}
	// Still completed and unlinked, so only the version guard could have
	// rejected the update.
	return servicerecord.StaleVersion, nil
}

// MarkInvoiced flips prefactured rows of the invoice to invoiced.
func (r *ServiceRecordRepo) MarkInvoiced(ctx context.Context, invoiceID id.ID) (int, error) {
	q := r.Builder().
		Update(serviceRecordsTable).
		Set("status", servicerecord.StatusInvoiced).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		Where(squirrel.Eq{"status": servicerecord.StatusPrefactured})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build mark invoiced: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("mark invoiced: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// ReleaseFromInvoice returns prefactured rows back to completed and clears
// the invoice reference. Used when a draft invoice is deleted.
func (r *ServiceRecordRepo) ReleaseFromInvoice(ctx context.Context, invoiceID id.ID) (int, error) {
	q := r.Builder().
		Update(serviceRecordsTable).
		Set("status", servicerecord.StatusCompleted).
		Set("invoice_id", nil).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		Where(squirrel.Eq{"status": servicerecord.StatusPrefactured})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build release: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("release from invoice: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// CountByInvoice counts rows linked to an invoice with the given status.
func (r *ServiceRecordRepo) CountByInvoice(ctx context.Context, invoiceID id.ID, status servicerecord.Status) (int, error) {
	q := r.Builder().
		Select("COUNT(*)").
		From(serviceRecordsTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		Where(squirrel.Eq{"status": status})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count by invoice: %w", err)
	}

	return count, nil
}

// GetAttachments retrieves attachment lines for a service record.
func (r *ServiceRecordRepo) GetAttachments(ctx context.Context, recID id.ID) ([]servicerecord.Attachment, error) {
	q := r.Builder().
		Select("line_id", "line_no", "file_name", "file_ref", "added_by", "added_at").
		From(serviceRecordAttachmentTable).
		Where(squirrel.Eq{"document_id": recID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []servicerecord.Attachment
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get attachments: %w", err)
	}

	return lines, nil
}

// SaveAttachments replaces attachment lines (delete existing + bulk insert).
// Must run inside a transaction; the inserter enforces that.
func (r *ServiceRecordRepo) SaveAttachments(ctx context.Context, recID id.ID, lines []servicerecord.Attachment) error {
	deleteSQL := "DELETE FROM " + serviceRecordAttachmentTable + " WHERE document_id = $1"
	if _, err := r.querier(ctx).Exec(ctx, deleteSQL, recID); err != nil {
		return fmt.Errorf("delete existing attachments: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, []any{
			line.LineID, recID, line.LineNo, line.FileName, line.FileRef, line.AddedBy, line.AddedAt,
		})
	}

	if _, err := r.batch.CopyFromSlice(ctx, serviceRecordAttachmentTable, serviceRecordAttachmentCols, rows); err != nil {
		return fmt.Errorf("insert attachments: %w", err)
	}

	return nil
}
