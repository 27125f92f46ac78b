package dto

import (
	"crewtransit/internal/core/entity"
	"crewtransit/internal/domain/catalogs/ratecode"
)

// CreateRateCodeRequest is the request body for creating a rate code.
type CreateRateCodeRequest struct {
	Code         string            `json:"code" binding:"required"`
	Name         string            `json:"name" binding:"required"`
	Kind         ratecode.Kind     `json:"kind" binding:"required"`
	CostCenter   string            `json:"costCenter" binding:"required"`
	ProfitCenter string            `json:"profitCenter"`
	Attributes   entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateRateCodeRequest) ToEntity() *ratecode.RateCode {
	rc := ratecode.New(r.Code, r.Name, r.Kind, r.CostCenter)
	rc.ProfitCenter = r.ProfitCenter
	rc.Attributes = r.Attributes
	return rc
}

// UpdateRateCodeRequest is the request body for updating a rate code.
type UpdateRateCodeRequest struct {
	Name         string            `json:"name" binding:"required"`
	Kind         ratecode.Kind     `json:"kind" binding:"required"`
	CostCenter   string            `json:"costCenter" binding:"required"`
	ProfitCenter string            `json:"profitCenter"`
	Attributes   entity.Attributes `json:"attributes"`
	Version      int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateRateCodeRequest) ApplyTo(rc *ratecode.RateCode) {
	rc.Name = r.Name
	rc.Kind = r.Kind
	rc.CostCenter = r.CostCenter
	rc.ProfitCenter = r.ProfitCenter
	rc.Attributes = r.Attributes
	rc.Version = r.Version
}

// RateCodeResponse is the response body for a rate code.
type RateCodeResponse struct {
	BaseResponse
	Code         string        `json:"code"`
	Name         string        `json:"name"`
	Kind         ratecode.Kind `json:"kind"`
	CostCenter   string        `json:"costCenter"`
	ProfitCenter string        `json:"profitCenter,omitempty"`
}

// FromRateCode creates response DTO from domain entity.
func FromRateCode(rc *ratecode.RateCode) *RateCodeResponse {
	return &RateCodeResponse{
		BaseResponse: FromBaseEntity(rc.BaseEntity),
		Code:         rc.Code,
		Name:         rc.Name,
		Kind:         rc.Kind,
		CostCenter:   rc.CostCenter,
		ProfitCenter: rc.ProfitCenter,
	}
}
