package dto

import (
	"time"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/id"
	"crewtransit/internal/core/types"
	"crewtransit/internal/domain/documents/invoice"
	"crewtransit/internal/domain/export"
)

// AdjustmentLineRequest is one manual adjustment on an invoice.
type AdjustmentLineRequest struct {
	Description string      `json:"description" binding:"required"`
	RateCode    string      `json:"rateCode" binding:"required"`
	Amount      types.Money `json:"amount" binding:"required"`
}

// CreateInvoiceRequest is the request body for aggregating services into a
// draft invoice.
type CreateInvoiceRequest struct {
	ClientCode  string                  `json:"clientCode" binding:"required"`
	Number      string                  `json:"number"`
	ServiceIDs  []string                `json:"serviceIds" binding:"required,min=1"`
	Adjustments []AdjustmentLineRequest `json:"adjustments"`
	IssueDate   time.Time               `json:"issueDate"`
}

// ToInput converts the request to the aggregation input.
func (r *CreateInvoiceRequest) ToInput() (invoice.CreateInput, error) {
	in := invoice.CreateInput{
		ClientCode: r.ClientCode,
		Number:     r.Number,
		IssueDate:  r.IssueDate,
	}

	for _, raw := range r.ServiceIDs {
		parsed, err := id.Parse(raw)
		if err != nil {
			return in, apperror.NewValidation("invalid service id").
				WithDetail("id", raw)
		}
		in.ServiceIDs = append(in.ServiceIDs, parsed)
	}

	for _, adj := range r.Adjustments {
		in.Adjustments = append(in.Adjustments, invoice.AdjustmentLine{
			Description: adj.Description,
			RateCode:    adj.RateCode,
			Amount:      adj.Amount,
		})
	}

	return in, nil
}

// AdjustmentLineResponse is one adjustment line.
type AdjustmentLineResponse struct {
	LineNo      int         `json:"lineNo"`
	Description string      `json:"description"`
	RateCode    string      `json:"rateCode"`
	Amount      types.Money `json:"amount"`
}

// InvoiceResponse is the response body for an invoice.
type InvoiceResponse struct {
	DocumentResponse
	ClientCode       string                   `json:"clientCode"`
	Status           invoice.Status           `json:"status"`
	Currency         string                   `json:"currency"`
	ServicesTotal    types.Money              `json:"servicesTotal"`
	AdjustmentsTotal types.Money              `json:"adjustmentsTotal"`
	TotalAmount      types.Money              `json:"totalAmount"`
	ExportProtocolID string                   `json:"exportProtocolId,omitempty"`
	FinalizedAt      *time.Time               `json:"finalizedAt,omitempty"`
	Adjustments      []AdjustmentLineResponse `json:"adjustments,omitempty"`
	ServiceIDs       []string                 `json:"serviceIds,omitempty"`
}

// FromInvoice creates response DTO from domain entity.
func FromInvoice(inv *invoice.Invoice) *InvoiceResponse {
	resp := &InvoiceResponse{
		DocumentResponse: FromDocument(inv.Document),
		ClientCode:       inv.ClientCode,
		Status:           inv.Status,
		Currency:         inv.Currency,
		ServicesTotal:    inv.ServicesTotal,
		AdjustmentsTotal: inv.AdjustmentsTotal,
		TotalAmount:      inv.TotalAmount,
		ExportProtocolID: inv.ExportProtocolID,
		FinalizedAt:      inv.FinalizedAt,
	}

	for _, adj := range inv.Adjustments {
		resp.Adjustments = append(resp.Adjustments, AdjustmentLineResponse{
			LineNo:      adj.LineNo,
			Description: adj.Description,
			RateCode:    adj.RateCode,
			Amount:      adj.Amount,
		})
	}

	for _, sid := range inv.ServiceIDs {
		resp.ServiceIDs = append(resp.ServiceIDs, sid.String())
	}

	return resp
}

// ExportValidationResponse reports the export gate outcome for an invoice
// without mutating anything.
type ExportValidationResponse struct {
	Valid    bool             `json:"valid"`
	Errors   []string         `json:"errors,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
	Document *export.Document `json:"document,omitempty"`
}
