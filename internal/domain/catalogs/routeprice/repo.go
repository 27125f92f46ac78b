package routeprice

import (
	"context"

	"crewtransit/internal/domain"
)

// Repository defines the interface for RoutePrice persistence.
type Repository interface {
	domain.CatalogRepository[*RoutePrice]

	// FindByRoute retrieves the active entry for the exact directed pair.
	FindByRoute(ctx context.Context, originCode, destinationCode string) (*RoutePrice, error)
}
