package dto

import (
	"crewtransit/internal/core/entity"
	"crewtransit/internal/domain/catalogs/location"
)

// CreateLocationRequest is the request body for creating a location.
type CreateLocationRequest struct {
	Code       string            `json:"code" binding:"required"`
	Name       string            `json:"name" binding:"required"`
	Class      location.Class    `json:"class" binding:"required"`
	City       string            `json:"city"`
	Address    string            `json:"address"`
	Attributes entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateLocationRequest) ToEntity() *location.Location {
	loc := location.New(r.Code, r.Name, r.Class)
	loc.City = r.City
	loc.Address = r.Address
	loc.Attributes = r.Attributes
	return loc
}

// UpdateLocationRequest is the request body for updating a location.
type UpdateLocationRequest struct {
	Name       string            `json:"name" binding:"required"`
	Class      location.Class    `json:"class" binding:"required"`
	City       string            `json:"city"`
	Address    string            `json:"address"`
	Attributes entity.Attributes `json:"attributes"`
	Version    int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity. The code is immutable:
// route prices and service history reference it.
func (r *UpdateLocationRequest) ApplyTo(loc *location.Location) {
	loc.Name = r.Name
	loc.Class = r.Class
	loc.City = r.City
	loc.Address = r.Address
	loc.Attributes = r.Attributes
	loc.Version = r.Version
}

// LocationResponse is the response body for a location.
type LocationResponse struct {
	BaseResponse
	Code    string         `json:"code"`
	Name    string         `json:"name"`
	Class   location.Class `json:"class"`
	City    string         `json:"city,omitempty"`
	Address string         `json:"address,omitempty"`
}

// FromLocation creates response DTO from domain entity.
func FromLocation(loc *location.Location) *LocationResponse {
	return &LocationResponse{
		BaseResponse: FromBaseEntity(loc.BaseEntity),
		Code:         loc.Code,
		Name:         loc.Name,
		Class:        loc.Class,
		City:         loc.City,
		Address:      loc.Address,
	}
}
