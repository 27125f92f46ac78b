package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"crewtransit/internal/domain/catalogs/routeprice"
	"crewtransit/internal/infrastructure/storage/postgres"
)

const routePriceTable = "cat_route_prices"

// RoutePriceRepo implements routeprice.Repository.
type RoutePriceRepo struct {
	*BaseCatalogRepo[*routeprice.RoutePrice]
}

// NewRoutePriceRepo creates a new route price repository.
func NewRoutePriceRepo(txManager *postgres.TxManager) *RoutePriceRepo {
	return &RoutePriceRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*routeprice.RoutePrice](
			txManager,
			routePriceTable,
			postgres.ExtractDBColumns[routeprice.RoutePrice](),
			func() *routeprice.RoutePrice { return &routeprice.RoutePrice{} },
		),
	}
}

// FindByRoute retrieves the active entry for the exact directed pair.
func (r *RoutePriceRepo) FindByRoute(ctx context.Context, originCode, destinationCode string) (*routeprice.RoutePrice, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[routeprice.RoutePrice]()...).
		From(routePriceTable).
		Where(squirrel.Eq{"origin_code": originCode}).
		Where(squirrel.Eq{"destination_code": destinationCode}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	return r.FindOne(ctx, q)
}
