package dto

import (
	"crewtransit/internal/core/entity"
	"crewtransit/internal/domain/catalogs/client"
)

// CreateClientRequest is the request body for creating a client.
type CreateClientRequest struct {
	Code            string            `json:"code" binding:"required"`
	Name            string            `json:"name" binding:"required"`
	ExportID        string            `json:"exportId"`
	ContactEmail    string            `json:"contactEmail"`
	DefaultCurrency string            `json:"defaultCurrency" binding:"required"`
	Attributes      entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateClientRequest) ToEntity() *client.Client {
	c := client.New(r.Code, r.Name, r.DefaultCurrency)
	c.ExportID = r.ExportID
	c.ContactEmail = r.ContactEmail
	c.Attributes = r.Attributes
	return c
}

// UpdateClientRequest is the request body for updating a client.
type UpdateClientRequest struct {
	Name            string            `json:"name" binding:"required"`
	ExportID        string            `json:"exportId"`
	ContactEmail    string            `json:"contactEmail"`
	DefaultCurrency string            `json:"defaultCurrency" binding:"required"`
	Attributes      entity.Attributes `json:"attributes"`
	Version         int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateClientRequest) ApplyTo(c *client.Client) {
	c.Name = r.Name
	c.ExportID = r.ExportID
	c.ContactEmail = r.ContactEmail
	c.DefaultCurrency = r.DefaultCurrency
	c.Attributes = r.Attributes
	c.Version = r.Version
}

// ClientResponse is the response body for a client.
type ClientResponse struct {
	BaseResponse
	Code            string `json:"code"`
	Name            string `json:"name"`
	ExportID        string `json:"exportId,omitempty"`
	ContactEmail    string `json:"contactEmail,omitempty"`
	DefaultCurrency string `json:"defaultCurrency"`
	Exportable      bool   `json:"exportable"`
}

// FromClient creates response DTO from domain entity.
func FromClient(c *client.Client) *ClientResponse {
	return &ClientResponse{
		BaseResponse:    FromBaseEntity(c.BaseEntity),
		Code:            c.Code,
		Name:            c.Name,
		ExportID:        c.ExportID,
		ContactEmail:    c.ContactEmail,
		DefaultCurrency: c.DefaultCurrency,
		Exportable:      c.Exportable(),
	}
}
