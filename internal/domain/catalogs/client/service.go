package client

import (
	"context"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/tx"
	"crewtransit/internal/domain"
)

// Service provides business logic for the Client catalog.
type Service struct {
	*domain.CatalogService[*Client]
	repo Repository
}

// NewService creates a new Client service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Client]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "client",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeCreate(svc.prepare)
	base.Hooks().OnBeforeUpdate(svc.normalizeOnly)

	return svc
}

// RequireExportable loads a client and verifies it is active and carries an
// ERP debtor number. Invoice finalization calls this before building the
// export document.
func (s *Service) RequireExportable(ctx context.Context, code string) (*Client, error) {
	c, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return nil, apperror.NewValidation("client is deactivated").
			WithDetail("client", c.Code)
	}
	if !c.Exportable() {
		return nil, apperror.NewClientMissingExportID(c.Code)
	}
	return c, nil
}

func (s *Service) prepare(ctx context.Context, c *Client) error {
	c.Normalize()

	exists, err := s.repo.ExistsByCode(ctx, c.Code)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("client", "code", c.Code)
	}
	return nil
}

func (s *Service) normalizeOnly(ctx context.Context, c *Client) error {
	c.Normalize()
	return nil
}
