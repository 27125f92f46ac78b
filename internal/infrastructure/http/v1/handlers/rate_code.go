package handlers

import (
	"crewtransit/internal/domain/catalogs/ratecode"
	"crewtransit/internal/infrastructure/http/v1/dto"
)

// RateCodeHTTPHandler is the configured generic handler for rate codes.
type RateCodeHTTPHandler = CatalogHandler[
	*ratecode.RateCode,
	dto.CreateRateCodeRequest,
	dto.UpdateRateCodeRequest,
]

// NewRateCodeHandler creates a rate code catalog handler.
func NewRateCodeHandler(
	base *BaseHandler,
	service *ratecode.Service,
) *RateCodeHTTPHandler {
	config := CatalogHandlerConfig[
		*ratecode.RateCode,
		dto.CreateRateCodeRequest,
		dto.UpdateRateCodeRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "rate_code",

		MapCreateDTO: func(req dto.CreateRateCodeRequest) *ratecode.RateCode {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateRateCodeRequest, existing *ratecode.RateCode) *ratecode.RateCode {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(rc *ratecode.RateCode) any {
			return dto.FromRateCode(rc)
		},
	}

	return NewCatalogHandler(base, config)
}
