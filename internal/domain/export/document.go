// Package export defines the financial export document handed to the
// downstream ERP integration and the validator that gates invoice
// finalization on it.
package export

import (
	"time"

	"crewtransit/internal/core/types"
)

// Document is the in-memory export structure. It mirrors the layout the
// downstream SAP interface expects: one header, one customer block and one
// or more line items.
type Document struct {
	Header   Header   `json:"header"`
	Customer Customer `json:"customer"`
	Lines    []Line   `json:"lines"`
}

// Header carries the document-level identification fields.
type Header struct {
	// ProtocolID identifies the transmission in the downstream system
	ProtocolID string `json:"protocolId"`

	// CompanyCode is the sending company's code in the target ERP
	CompanyCode string `json:"companyCode"`

	// Currency is the ISO 4217 code of the document amounts
	Currency string `json:"currency"`

	// DocumentDate is the invoice issue date
	DocumentDate time.Time `json:"documentDate"`
}

// Customer is the debtor block.
type Customer struct {
	// ExportID is the client's debtor number in the target ERP
	ExportID string `json:"exportId"`

	// Amount is the total transaction amount
	Amount types.Money `json:"amount"`
}

// Line is one billable line item.
type Line struct {
	// RateCode routes the amount to an income or rebate account
	RateCode string `json:"rateCode"`

	Amount types.Money `json:"amount"`

	// Currency may be empty, in which case the header currency applies.
	// A differing value is reported as a warning, never an error.
	Currency string `json:"currency,omitempty"`

	CostCenter   string `json:"costCenter"`
	ProfitCenter string `json:"profitCenter,omitempty"`

	// ServiceDescription is the free-text description of the service
	ServiceDescription string `json:"serviceDescription"`

	// RouteDescription names the origin/destination pair
	RouteDescription string `json:"routeDescription"`
}

// Result is the validator's verdict. Warnings never block finalization but
// are recorded for audit.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
