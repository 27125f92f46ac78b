package handlers

import (
	"crewtransit/internal/domain/catalogs/routeprice"
	"crewtransit/internal/infrastructure/http/v1/dto"
)

// RoutePriceHTTPHandler is the configured generic handler for route prices.
type RoutePriceHTTPHandler = CatalogHandler[
	*routeprice.RoutePrice,
	dto.CreateRoutePriceRequest,
	dto.UpdateRoutePriceRequest,
]

// NewRoutePriceHandler creates a route price catalog handler.
func NewRoutePriceHandler(
	base *BaseHandler,
	service *routeprice.Service,
) *RoutePriceHTTPHandler {
	config := CatalogHandlerConfig[
		*routeprice.RoutePrice,
		dto.CreateRoutePriceRequest,
		dto.UpdateRoutePriceRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "route_price",

		MapCreateDTO: func(req dto.CreateRoutePriceRequest) *routeprice.RoutePrice {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateRoutePriceRequest, existing *routeprice.RoutePrice) *routeprice.RoutePrice {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(rp *routeprice.RoutePrice) any {
			return dto.FromRoutePrice(rp)
		},
	}

	return NewCatalogHandler(base, config)
}
