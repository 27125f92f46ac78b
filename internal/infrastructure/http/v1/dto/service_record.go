package dto

import (
	"time"

	"crewtransit/internal/core/entity"
	"crewtransit/internal/core/types"
	"crewtransit/internal/domain/documents/servicerecord"
	"crewtransit/internal/domain/pricing"
)

// CreateServiceRecordRequest is the request body for creating a service record.
type CreateServiceRecordRequest struct {
	ClientCode      string            `json:"clientCode" binding:"required"`
	OriginCode      string            `json:"originCode" binding:"required"`
	DestinationCode string            `json:"destinationCode" binding:"required"`
	Category        pricing.Category  `json:"category" binding:"required"`
	PassengerCount  int               `json:"passengerCount" binding:"required,min=1"`
	WaitingHours    types.Money       `json:"waitingHours"`
	ScheduledDate   time.Time         `json:"scheduledDate" binding:"required"`
	Comment         string            `json:"comment"`
	Attributes      entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateServiceRecordRequest) ToEntity() *servicerecord.ServiceRecord {
	rec := servicerecord.New(r.ClientCode, r.OriginCode, r.DestinationCode, r.Category, r.ScheduledDate)
	rec.PassengerCount = r.PassengerCount
	rec.WaitingHours = r.WaitingHours
	rec.Comment = r.Comment
	rec.Attributes = r.Attributes
	return rec
}

// UpdateServiceRecordRequest is the request body for updating an editable
// service record. Status and invoice linkage are never writable here.
type UpdateServiceRecordRequest struct {
	ClientCode      string            `json:"clientCode" binding:"required"`
	OriginCode      string            `json:"originCode" binding:"required"`
	DestinationCode string            `json:"destinationCode" binding:"required"`
	Category        pricing.Category  `json:"category" binding:"required"`
	PassengerCount  int               `json:"passengerCount" binding:"required,min=1"`
	WaitingHours    types.Money       `json:"waitingHours"`
	ScheduledDate   time.Time         `json:"scheduledDate" binding:"required"`
	Comment         string            `json:"comment"`
	Attributes      entity.Attributes `json:"attributes"`
	Version         int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateServiceRecordRequest) ApplyTo(rec *servicerecord.ServiceRecord) {
	rec.ClientCode = r.ClientCode
	rec.OriginCode = r.OriginCode
	rec.DestinationCode = r.DestinationCode
	rec.Category = r.Category
	rec.PassengerCount = r.PassengerCount
	rec.WaitingHours = r.WaitingHours
	rec.Date = r.ScheduledDate
	rec.Comment = r.Comment
	rec.Attributes = r.Attributes
	rec.Version = r.Version
}

// ChangeStatusRequest moves a record through its operational lifecycle.
type ChangeStatusRequest struct {
	Status servicerecord.Status `json:"status" binding:"required"`
}

// AddAttachmentRequest appends one attachment reference.
type AddAttachmentRequest struct {
	FileName string `json:"fileName" binding:"required"`
	FileRef  string `json:"fileRef" binding:"required"`
}

// AttachmentResponse is one attachment line.
type AttachmentResponse struct {
	LineNo   int       `json:"lineNo"`
	FileName string    `json:"fileName"`
	FileRef  string    `json:"fileRef"`
	AddedBy  string    `json:"addedBy,omitempty"`
	AddedAt  time.Time `json:"addedAt"`
}

// ServiceRecordResponse is the response body for a service record.
type ServiceRecordResponse struct {
	DocumentResponse
	ClientCode      string               `json:"clientCode"`
	Status          servicerecord.Status `json:"status"`
	OriginCode      string               `json:"originCode"`
	DestinationCode string               `json:"destinationCode"`
	Category        pricing.Category     `json:"category"`
	PassengerCount  int                  `json:"passengerCount"`
	WaitingHours    types.Money          `json:"waitingHours"`
	Price           types.Money          `json:"price"`
	Currency        string               `json:"currency"`
	PriceSource     pricing.Source       `json:"priceSource,omitempty"`
	InvoiceID       *string              `json:"invoiceId,omitempty"`
	Attachments     []AttachmentResponse `json:"attachments,omitempty"`
}

// FromServiceRecord creates response DTO from domain entity.
func FromServiceRecord(rec *servicerecord.ServiceRecord) *ServiceRecordResponse {
	resp := &ServiceRecordResponse{
		DocumentResponse: FromDocument(rec.Document),
		ClientCode:       rec.ClientCode,
		Status:           rec.Status,
		OriginCode:       rec.OriginCode,
		DestinationCode:  rec.DestinationCode,
		Category:         rec.Category,
		PassengerCount:   rec.PassengerCount,
		WaitingHours:     rec.WaitingHours,
		Price:            rec.Price,
		Currency:         rec.Currency,
		PriceSource:      rec.PriceSource,
	}

	if rec.InvoiceID != nil {
		s := rec.InvoiceID.String()
		resp.InvoiceID = &s
	}

	for _, a := range rec.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentResponse{
			LineNo:   a.LineNo,
			FileName: a.FileName,
			FileRef:  a.FileRef,
			AddedBy:  a.AddedBy,
			AddedAt:  a.AddedAt,
		})
	}

	return resp
}
