package ratecode

import (
	"context"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/tx"
	"crewtransit/internal/domain"
)

// Service provides business logic for the RateCode catalog.
type Service struct {
	*domain.CatalogService[*RateCode]
	repo Repository
}

// NewService creates a new RateCode service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*RateCode]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "rate_code",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeCreate(svc.prepare)
	base.Hooks().OnBeforeUpdate(svc.normalizeOnly)

	return svc
}

// CostCenterFor resolves the ERP routing fields for a rate code. Used when
// building export document lines.
func (s *Service) CostCenterFor(ctx context.Context, code string) (costCenter, profitCenter string, err error) {
	rc, err := s.GetByCode(ctx, code)
	if err != nil {
		return "", "", err
	}
	if !rc.IsActive() {
		return "", "", apperror.NewValidation("rate code is deactivated").
			WithDetail("code", rc.Code)
	}
	return rc.CostCenter, rc.ProfitCenter, nil
}

func (s *Service) prepare(ctx context.Context, rc *RateCode) error {
	rc.Normalize()

	exists, err := s.repo.ExistsByCode(ctx, rc.Code)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("rate_code", "code", rc.Code)
	}
	return nil
}

func (s *Service) normalizeOnly(ctx context.Context, rc *RateCode) error {
	rc.Normalize()
	return nil
}
