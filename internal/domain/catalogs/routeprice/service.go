package routeprice

import (
	"context"
	"strings"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/tx"
	"crewtransit/internal/domain"
	"crewtransit/pkg/logger"
)

// Direction reports which lookup branch produced a match. Callers and tests
// can assert on fallback usage instead of inferring it from code formats.
type Direction string

const (
	DirectionExact   Direction = "exact"
	DirectionReverse Direction = "reverse"
)

// Service provides business logic for the RoutePrice catalog.
type Service struct {
	*domain.CatalogService[*RoutePrice]
	repo Repository

	// symmetric enables the reverse-direction fallback on lookup.
	// Asymmetric pricing is the common case, so this is off unless the
	// deployment opts in.
	symmetric bool
}

// NewService creates a new RoutePrice service.
func NewService(repo Repository, txManager tx.Manager, symmetric bool) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*RoutePrice]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "route price",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		symmetric:      symmetric,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.normalizeOnly)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, rp *RoutePrice) error {
	rp.Normalize()

	exists, err := s.repo.ExistsByCode(ctx, rp.Code)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("route price", "route", rp.Code)
	}
	return nil
}

func (s *Service) normalizeOnly(ctx context.Context, rp *RoutePrice) error {
	rp.Normalize()
	return nil
}

// Lookup resolves the price entry for a directed pair. It tries the exact
// direction first, then the reverse direction when symmetric lookup is
// enabled. The returned Direction tells which branch matched.
func (s *Service) Lookup(ctx context.Context, originCode, destinationCode string) (*RoutePrice, Direction, error) {
	originCode = strings.ToUpper(strings.TrimSpace(originCode))
	destinationCode = strings.ToUpper(strings.TrimSpace(destinationCode))

	entry, err := s.repo.FindByRoute(ctx, originCode, destinationCode)
	if err == nil {
		return entry, DirectionExact, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, "", err
	}

	if !s.symmetric {
		return nil, "", apperror.NewNotFound("route price", RouteCode(originCode, destinationCode))
	}

	entry, err = s.repo.FindByRoute(ctx, destinationCode, originCode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, "", apperror.NewNotFound("route price", RouteCode(originCode, destinationCode))
		}
		return nil, "", err
	}

	logger.Warn(ctx, "route price resolved via reverse direction",
		"origin", originCode,
		"destination", destinationCode,
	)
	return entry, DirectionReverse, nil
}
