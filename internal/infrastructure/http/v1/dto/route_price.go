package dto

import (
	"crewtransit/internal/core/entity"
	"crewtransit/internal/core/types"
	"crewtransit/internal/domain/catalogs/routeprice"
)

// CreateRoutePriceRequest is the request body for creating a route price.
type CreateRoutePriceRequest struct {
	OriginCode        string            `json:"originCode" binding:"required"`
	DestinationCode   string            `json:"destinationCode" binding:"required"`
	BasePrice         types.Money       `json:"basePrice" binding:"required"`
	PerExtraPassenger types.Money       `json:"perExtraPassenger"`
	PerWaitingHour    types.Money       `json:"perWaitingHour"`
	Currency          string            `json:"currency" binding:"required"`
	Name              string            `json:"name"`
	Attributes        entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateRoutePriceRequest) ToEntity() *routeprice.RoutePrice {
	rp := routeprice.New(r.OriginCode, r.DestinationCode, r.BasePrice, r.Currency)
	rp.PerExtraPassenger = r.PerExtraPassenger
	rp.PerWaitingHour = r.PerWaitingHour
	if r.Name != "" {
		rp.Name = r.Name
	}
	rp.Attributes = r.Attributes
	return rp
}

// UpdateRoutePriceRequest is the request body for updating a route price.
// The route pair is immutable; repricing a different pair is a new entry.
type UpdateRoutePriceRequest struct {
	BasePrice         types.Money       `json:"basePrice" binding:"required"`
	PerExtraPassenger types.Money       `json:"perExtraPassenger"`
	PerWaitingHour    types.Money       `json:"perWaitingHour"`
	Currency          string            `json:"currency" binding:"required"`
	Name              string            `json:"name"`
	Attributes        entity.Attributes `json:"attributes"`
	Version           int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateRoutePriceRequest) ApplyTo(rp *routeprice.RoutePrice) {
	rp.BasePrice = r.BasePrice
	rp.PerExtraPassenger = r.PerExtraPassenger
	rp.PerWaitingHour = r.PerWaitingHour
	rp.Currency = r.Currency
	if r.Name != "" {
		rp.Name = r.Name
	}
	rp.Attributes = r.Attributes
	rp.Version = r.Version
}

// RoutePriceResponse is the response body for a route price.
type RoutePriceResponse struct {
	BaseResponse
	Code              string      `json:"code"`
	Name              string      `json:"name"`
	OriginCode        string      `json:"originCode"`
	DestinationCode   string      `json:"destinationCode"`
	BasePrice         types.Money `json:"basePrice"`
	PerExtraPassenger types.Money `json:"perExtraPassenger"`
	PerWaitingHour    types.Money `json:"perWaitingHour"`
	Currency          string      `json:"currency"`
}

// FromRoutePrice creates response DTO from domain entity.
func FromRoutePrice(rp *routeprice.RoutePrice) *RoutePriceResponse {
	return &RoutePriceResponse{
		BaseResponse:      FromBaseEntity(rp.BaseEntity),
		Code:              rp.Code,
		Name:              rp.Name,
		OriginCode:        rp.OriginCode,
		DestinationCode:   rp.DestinationCode,
		BasePrice:         rp.BasePrice,
		PerExtraPassenger: rp.PerExtraPassenger,
		PerWaitingHour:    rp.PerWaitingHour,
		Currency:          rp.Currency,
	}
}
