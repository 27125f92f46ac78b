package invoice

import (
	"context"
	"fmt"
	"time"

	"crewtransit/internal/core/actor"
	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/id"
	"crewtransit/internal/core/tx"
	"crewtransit/internal/core/types"
	"crewtransit/internal/domain"
	"crewtransit/internal/domain/catalogs/client"
	"crewtransit/internal/domain/documents/servicerecord"
	"crewtransit/internal/domain/export"
	"crewtransit/pkg/logger"
	"crewtransit/pkg/numerator"
)

// ClientSource resolves clients. Satisfied by *client.Service.
type ClientSource interface {
	GetByCode(ctx context.Context, code string) (*client.Client, error)
	RequireExportable(ctx context.Context, code string) (*client.Client, error)
}

// ExportGate validates export documents. Satisfied by *export.Validator.
type ExportGate interface {
	Validate(doc *export.Document) export.Result
}

// RateCodeSource resolves rate codes for export document lines.
type RateCodeSource interface {
	CostCenterFor(ctx context.Context, code string) (costCenter, profitCenter string, err error)
}

// Config holds deployment constants for invoicing and export.
type Config struct {
	// CompanyCode identifies this company in export document headers
	CompanyCode string

	// ServiceRateCode is the rate code stamped on per-service export lines
	ServiceRateCode string
}

// Service implements invoice aggregation: grouping completed services into a
// draft invoice, finalizing against the export validator, and undoing
// non-finalized aggregations. All membership changes ride on the service
// record repository's conditional updates inside one transaction, so two
// concurrent aggregations over the same service produce exactly one winner.
type Service struct {
	repo      Repository
	services  servicerecord.Repository
	clients   ClientSource
	rateCodes RateCodeSource
	gate      ExportGate
	numerator numerator.Generator
	txManager tx.Manager
	cfg       Config
}

// NewService creates an invoice service.
func NewService(
	repo Repository,
	services servicerecord.Repository,
	clients ClientSource,
	rateCodes RateCodeSource,
	gate ExportGate,
	numGen numerator.Generator,
	txManager tx.Manager,
	cfg Config,
) *Service {
	return &Service{
		repo:      repo,
		services:  services,
		clients:   clients,
		rateCodes: rateCodes,
		gate:      gate,
		numerator: numGen,
		txManager: txManager,
		cfg:       cfg,
	}
}

// CreateInput is the aggregation request.
type CreateInput struct {
	ClientCode  string
	Number      string
	ServiceIDs  []id.ID
	Adjustments []AdjustmentLine
	IssueDate   time.Time
}

// Create aggregates completed services into a new draft invoice. All
// preconditions are checked before any write, and the invoice insert plus
// every service link commit as one transaction; a losing race on any single
// service rolls the whole aggregation back.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Invoice, error) {
	if len(in.ServiceIDs) == 0 {
		return nil, apperror.NewValidation("at least one service is required").
			WithDetail("field", "serviceIds")
	}
	serviceIDs := dedupe(in.ServiceIDs)

	cl, err := s.clients.RequireExportable(ctx, in.ClientCode)
	if err != nil {
		return nil, err
	}

	number := NormalizeNumber(in.Number)
	if number != "" {
		taken, err := s.repo.ExistsByNumber(ctx, number)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperror.NewAggregation(apperror.CodeDuplicateInvoiceNumber,
				"invoice number is already in use").
				WithDetail("number", number)
		}
	}

	recs, servicesTotal, err := s.checkEligibility(ctx, cl.Code, cl.DefaultCurrency, serviceIDs)
	if err != nil {
		return nil, err
	}

	adjustments, adjustmentsTotal := prepareAdjustments(in.Adjustments)

	inv := New(cl.Code, number, cl.DefaultCurrency)
	if !in.IssueDate.IsZero() {
		inv.Date = in.IssueDate
	}
	inv.Adjustments = adjustments
	inv.ServiceIDs = serviceIDs
	inv.SetTotals(servicesTotal, adjustmentsTotal)

	if a := actor.FromContext(ctx); a != nil {
		inv.CreatedBy = a.UserID
		inv.UpdatedBy = a.UserID
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// The strict sequence increment rides this transaction, so a failed
		// aggregation rolls it back and the number is never burned.
		if inv.Number == "" {
			cfg := numerator.DefaultConfig(NumberPrefix)
			next, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
			if err != nil {
				return fmt.Errorf("generate invoice number: %w", err)
			}
			inv.Number = next
		}

		if err := inv.Validate(ctx); err != nil {
			return err
		}

		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if len(inv.Adjustments) > 0 {
			if err := s.repo.SaveAdjustments(ctx, inv.ID, inv.Adjustments); err != nil {
				return fmt.Errorf("save adjustments: %w", err)
			}
		}

		// Conditional link per service, guarded by the version read during
		// the eligibility pass. Anything but a clean win aborts the
		// transaction, so a concurrent aggregation never splits the set and
		// a concurrent edit never freezes a stale price into the invoice.
		for _, rec := range recs {
			res, err := s.services.LinkToInvoice(ctx, rec.ID, inv.ID, rec.Version)
			if err != nil {
				return fmt.Errorf("link service %s: %w", rec.ID, err)
			}
			if err := linkError(rec.ID, res); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created",
		"id", inv.ID,
		"number", inv.Number,
		"client", inv.ClientCode,
		"services", len(serviceIDs),
		"total", inv.TotalAmount.String())

	return inv, nil
}

// GetByID loads an invoice with its adjustments and linked service IDs.
func (s *Service) GetByID(ctx context.Context, invID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetAdjustments(ctx, invID)
	if err != nil {
		return nil, fmt.Errorf("get adjustments: %w", err)
	}
	inv.Adjustments = lines

	recs, err := s.linkedServices(ctx, invID)
	if err != nil {
		return nil, err
	}
	inv.ServiceIDs = make([]id.ID, 0, len(recs))
	for _, rec := range recs {
		inv.ServiceIDs = append(inv.ServiceIDs, rec.ID)
	}

	return inv, nil
}

// GetByNumber loads an invoice by its normalized number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	return s.repo.GetByNumber(ctx, NormalizeNumber(number))
}

// List retrieves invoices with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, filter)
}

// Finalize accepts an export document for the invoice. The validator gates
// the whole operation: a rejected document changes nothing. On acceptance
// the invoice flips to finalized and every linked service to invoiced, in
// one transaction.
func (s *Service) Finalize(ctx context.Context, invID id.ID, doc *export.Document) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invID)
	if err != nil {
		return nil, err
	}
	if inv.IsFinalized() {
		return nil, apperror.NewConflict("invoice is already finalized").
			WithDetail("number", inv.Number)
	}

	res := s.gate.Validate(doc)
	if !res.Valid {
		return nil, apperror.NewExportValidation(res.Errors)
	}
	for _, w := range res.Warnings {
		logger.Warn(ctx, "export document warning",
			"invoice", inv.Number,
			"warning", w)
	}

	now := time.Now().UTC()
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Every linked service must still be prefactured.
		invoiced, err := s.services.CountByInvoice(ctx, invID, servicerecord.StatusInvoiced)
		if err != nil {
			return err
		}
		if invoiced > 0 {
			return apperror.NewConflict("linked services were modified concurrently").
				WithDetail("invoice", inv.Number)
		}

		flipped, err := s.services.MarkInvoiced(ctx, invID)
		if err != nil {
			return fmt.Errorf("mark services invoiced: %w", err)
		}
		if flipped == 0 {
			return apperror.NewConflict("invoice has no prefactured services").
				WithDetail("invoice", inv.Number)
		}

		ok, err := s.repo.MarkFinalized(ctx, invID, doc.Header.ProtocolID, now)
		if err != nil {
			return fmt.Errorf("finalize invoice: %w", err)
		}
		if !ok {
			return apperror.NewConflict("invoice was finalized concurrently").
				WithDetail("invoice", inv.Number)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	inv.Status = StatusFinalized
	inv.ExportProtocolID = doc.Header.ProtocolID
	inv.FinalizedAt = &now

	logger.Info(ctx, "invoice finalized",
		"id", inv.ID,
		"number", inv.Number,
		"protocol", inv.ExportProtocolID,
		"warnings", len(res.Warnings))

	return inv, nil
}

// Delete removes a draft invoice and releases its services back to
// completed. Finalized invoices are immutable through this path.
func (s *Service) Delete(ctx context.Context, invID id.ID) error {
	inv, err := s.repo.GetByID(ctx, invID)
	if err != nil {
		return err
	}
	if inv.IsFinalized() {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"finalized invoice cannot be deleted").
			WithDetail("number", inv.Number)
	}

	var released int
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		released, err = s.services.ReleaseFromInvoice(ctx, invID)
		if err != nil {
			return fmt.Errorf("release services: %w", err)
		}
		return s.repo.Delete(ctx, invID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "invoice deleted",
		"id", invID,
		"number", inv.Number,
		"servicesReleased", released)

	return nil
}

// --- internals ---

// checkEligibility loads every requested service and verifies it can join an
// invoice for the given client and currency. Returns the loaded records so the
// caller can link them by the exact version it inspected.
func (s *Service) checkEligibility(ctx context.Context, clientCode, currency string, serviceIDs []id.ID) ([]*servicerecord.ServiceRecord, types.Money, error) {
	total := types.Zero()
	recs := make([]*servicerecord.ServiceRecord, 0, len(serviceIDs))
	for _, recID := range serviceIDs {
		rec, err := s.services.GetByID(ctx, recID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, types.Zero(), apperror.NewAggregation(apperror.CodeServiceNotEligible,
					"service does not exist").
					WithDetail("serviceId", recID)
			}
			return nil, types.Zero(), err
		}

		if rec.InvoiceID != nil {
			return nil, types.Zero(), apperror.NewAggregation(apperror.CodeAlreadyLinked,
				"service already belongs to an invoice").
				WithDetail("serviceId", recID).
				WithDetail("invoiceId", *rec.InvoiceID)
		}
		if rec.Status != servicerecord.StatusCompleted {
			return nil, types.Zero(), apperror.NewAggregation(apperror.CodeServiceNotEligible,
				"service is not completed").
				WithDetail("serviceId", recID).
				WithDetail("status", string(rec.Status))
		}
		if rec.ClientCode != clientCode {
			return nil, types.Zero(), apperror.NewAggregation(apperror.CodeClientMismatch,
				"service belongs to a different client").
				WithDetail("serviceId", recID).
				WithDetail("serviceClient", rec.ClientCode).
				WithDetail("invoiceClient", clientCode)
		}
		if rec.Currency != currency {
			return nil, types.Zero(), apperror.NewAggregation(apperror.CodeCurrencyMismatch,
				"service is priced in a different currency").
				WithDetail("serviceId", recID).
				WithDetail("serviceCurrency", rec.Currency).
				WithDetail("invoiceCurrency", currency)
		}

		total = total.Add(rec.Price)
		recs = append(recs, rec)
	}
	return recs, total, nil
}

func (s *Service) linkedServices(ctx context.Context, invID id.ID) ([]*servicerecord.ServiceRecord, error) {
	res, err := s.services.List(ctx, servicerecord.ListFilter{
		ListFilter: domain.ListFilter{Limit: 0},
		InvoiceID:  &invID,
	})
	if err != nil {
		return nil, fmt.Errorf("list linked services: %w", err)
	}
	return res.Items, nil
}

func linkError(recID id.ID, res servicerecord.LinkResult) error {
	switch res {
	case servicerecord.Linked:
		return nil
	case servicerecord.AlreadyLinked:
		return apperror.NewAggregation(apperror.CodeAlreadyLinked,
			"service was linked by a concurrent aggregation").
			WithDetail("serviceId", recID)
	case servicerecord.NotEligible:
		return apperror.NewAggregation(apperror.CodeServiceNotEligible,
			"service left completed status").
			WithDetail("serviceId", recID)
	case servicerecord.StaleVersion:
		return apperror.NewAggregation(apperror.CodeConcurrentModification,
			"service was edited after eligibility was checked").
			WithDetail("serviceId", recID)
	default:
		return apperror.NewAggregation(apperror.CodeServiceNotEligible,
			"service does not exist").
			WithDetail("serviceId", recID)
	}
}

func prepareAdjustments(lines []AdjustmentLine) ([]AdjustmentLine, types.Money) {
	total := types.Zero()
	out := make([]AdjustmentLine, 0, len(lines))
	for n, line := range lines {
		line.LineID = id.New()
		line.LineNo = n + 1
		total = total.Add(line.Amount)
		out = append(out, line)
	}
	return out, total
}

func dedupe(ids []id.ID) []id.ID {
	seen := make(map[id.ID]struct{}, len(ids))
	out := make([]id.ID, 0, len(ids))
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
