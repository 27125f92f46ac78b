package handlers

import (
	"crewtransit/internal/domain/catalogs/location"
	"crewtransit/internal/infrastructure/http/v1/dto"
)

// LocationHTTPHandler is the configured generic handler for locations.
type LocationHTTPHandler = CatalogHandler[
	*location.Location,
	dto.CreateLocationRequest,
	dto.UpdateLocationRequest,
]

// NewLocationHandler creates a location catalog handler.
func NewLocationHandler(
	base *BaseHandler,
	service *location.Service,
) *LocationHTTPHandler {
	config := CatalogHandlerConfig[
		*location.Location,
		dto.CreateLocationRequest,
		dto.UpdateLocationRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "location",

		MapCreateDTO: func(req dto.CreateLocationRequest) *location.Location {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateLocationRequest, existing *location.Location) *location.Location {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(loc *location.Location) any {
			return dto.FromLocation(loc)
		},
	}

	return NewCatalogHandler(base, config)
}
