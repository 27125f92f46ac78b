package location

import (
	"context"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/tx"
	"crewtransit/internal/domain"
)

// Service provides business logic for the Location catalog.
type Service struct {
	*domain.CatalogService[*Location]
	repo Repository
}

// NewService creates a new Location service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Location]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "location",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeCreate(svc.prepare)
	base.Hooks().OnBeforeUpdate(svc.normalizeOnly)

	return svc
}

func (s *Service) prepare(ctx context.Context, loc *Location) error {
	loc.Normalize()

	exists, err := s.repo.ExistsByCode(ctx, loc.Code)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("location", "code", loc.Code)
	}
	return nil
}

func (s *Service) normalizeOnly(ctx context.Context, loc *Location) error {
	loc.Normalize()
	return nil
}
