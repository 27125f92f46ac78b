package handlers

import (
	"crewtransit/internal/domain/catalogs/client"
	"crewtransit/internal/infrastructure/http/v1/dto"
)

// ClientHTTPHandler is the configured generic handler for clients.
type ClientHTTPHandler = CatalogHandler[
	*client.Client,
	dto.CreateClientRequest,
	dto.UpdateClientRequest,
]

// NewClientHandler creates a client catalog handler.
func NewClientHandler(
	base *BaseHandler,
	service *client.Service,
) *ClientHTTPHandler {
	config := CatalogHandlerConfig[
		*client.Client,
		dto.CreateClientRequest,
		dto.UpdateClientRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "client",

		MapCreateDTO: func(req dto.CreateClientRequest) *client.Client {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateClientRequest, existing *client.Client) *client.Client {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(cl *client.Client) any {
			return dto.FromClient(cl)
		},
	}

	return NewCatalogHandler(base, config)
}
