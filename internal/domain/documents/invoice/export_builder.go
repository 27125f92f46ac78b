package invoice

import (
	"context"
	"fmt"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/id"
	"crewtransit/internal/domain/export"
)

// BuildExportDocument assembles the export document for an invoice from its
// linked services, the client catalog and the rate code catalog. The result
// still has to pass the validator; building and finalizing are separate
// steps so operators can inspect and diagnose a document before committing.
func (s *Service) BuildExportDocument(ctx context.Context, invID id.ID) (*export.Document, error) {
	inv, err := s.repo.GetByID(ctx, invID)
	if err != nil {
		return nil, err
	}

	cl, err := s.clients.RequireExportable(ctx, inv.ClientCode)
	if err != nil {
		return nil, err
	}

	recs, err := s.linkedServices(ctx, invID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"invoice has no linked services").
			WithDetail("number", inv.Number)
	}

	adjustments, err := s.repo.GetAdjustments(ctx, invID)
	if err != nil {
		return nil, fmt.Errorf("get adjustments: %w", err)
	}

	serviceCost, serviceProfit, err := s.rateCodes.CostCenterFor(ctx, s.cfg.ServiceRateCode)
	if err != nil {
		return nil, fmt.Errorf("resolve service rate code: %w", err)
	}

	doc := &export.Document{
		Header: export.Header{
			ProtocolID:   "EXP-" + inv.Number,
			CompanyCode:  s.cfg.CompanyCode,
			Currency:     inv.Currency,
			DocumentDate: inv.EffectiveDate(),
		},
		Customer: export.Customer{
			ExportID: cl.ExportID,
			Amount:   inv.TotalAmount,
		},
		Lines: make([]export.Line, 0, len(recs)+len(adjustments)),
	}

	for _, rec := range recs {
		doc.Lines = append(doc.Lines, export.Line{
			RateCode:           s.cfg.ServiceRateCode,
			Amount:             rec.Price,
			Currency:           rec.Currency,
			CostCenter:         serviceCost,
			ProfitCenter:       serviceProfit,
			ServiceDescription: fmt.Sprintf("%s %s transfer, %d pax, %s", rec.Number, rec.Category, rec.PassengerCount, rec.EffectiveDate().Format("2006-01-02")),
			RouteDescription:   rec.OriginCode + " > " + rec.DestinationCode,
		})
	}

	for _, adj := range adjustments {
		cost, profit, err := s.rateCodes.CostCenterFor(ctx, adj.RateCode)
		if err != nil {
			return nil, fmt.Errorf("resolve adjustment rate code %s: %w", adj.RateCode, err)
		}
		doc.Lines = append(doc.Lines, export.Line{
			RateCode:           adj.RateCode,
			Amount:             adj.Amount,
			CostCenter:         cost,
			ProfitCenter:       profit,
			ServiceDescription: adj.Description,
			RouteDescription:   "N/A",
		})
	}

	return doc, nil
}
