// Package client provides the Client catalog: the shipping companies and
// agencies billed for crew transport services.
package client

import (
	"context"
	"strings"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/entity"
)

// Client represents a billable party.
type Client struct {
	entity.Catalog

	// ExportID is the client's debtor number in the target ERP. Invoices for
	// a client without one can be drafted but never finalized.
	ExportID string `db:"export_id" json:"exportId,omitempty"`

	// ContactEmail receives invoice notifications
	ContactEmail string `db:"contact_email" json:"contactEmail,omitempty"`

	// DefaultCurrency is the ISO 4217 currency new invoices default to
	DefaultCurrency string `db:"default_currency" json:"defaultCurrency"`
}

// New creates a new Client.
func New(code, name, defaultCurrency string) *Client {
	return &Client{
		Catalog:         entity.NewCatalog(code, name),
		DefaultCurrency: defaultCurrency,
	}
}

// Normalize applies write-boundary canonicalization.
func (c *Client) Normalize() {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	c.Name = strings.TrimSpace(c.Name)
	c.ExportID = strings.TrimSpace(c.ExportID)
	c.ContactEmail = strings.ToLower(strings.TrimSpace(c.ContactEmail))
	c.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.DefaultCurrency))
}

// Validate implements entity.Validatable.
func (c *Client) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if len(c.DefaultCurrency) != 3 {
		return apperror.NewValidation("default currency must be a 3-letter ISO code").
			WithDetail("field", "defaultCurrency").
			WithDetail("value", c.DefaultCurrency)
	}

	return nil
}

// Exportable reports whether the client carries the ERP debtor number
// required for invoice finalization.
func (c *Client) Exportable() bool {
	return c.ExportID != ""
}
