// Package servicerecord provides the ServiceRecord document: one ground
// transport job for a crew, from creation through invoicing.
package servicerecord

import (
	"context"
	"strings"
	"time"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/entity"
	"crewtransit/internal/core/id"
	"crewtransit/internal/core/types"
	"crewtransit/internal/domain/pricing"
)

// MaxAttachments caps the append-only attachment list per record.
const MaxAttachments = 10

// ServiceRecord represents one transport job. The document Date field holds
// the scheduled service date.
type ServiceRecord struct {
	entity.Document

	// ClientCode references the Client catalog
	ClientCode string `db:"client_code" json:"clientCode"`

	// Status drives edit-gating and invoicing eligibility
	Status Status `db:"status" json:"status"`

	// Route
	OriginCode      string `db:"origin_code" json:"originCode"`
	DestinationCode string `db:"destination_code" json:"destinationCode"`

	// Category selects the surcharge rate
	Category pricing.Category `db:"category" json:"category"`

	PassengerCount int         `db:"passenger_count" json:"passengerCount"`
	WaitingHours   types.Money `db:"waiting_hours" json:"waitingHours"`

	// Price is persisted once computed and reproducible from the inputs
	// above plus catalog state at computation time
	Price    types.Money `db:"price" json:"price"`
	Currency string      `db:"currency" json:"currency"`

	// PriceSource records whether the price came from a catalog route or a
	// fallback tier, for auditing
	PriceSource pricing.Source `db:"price_source" json:"priceSource,omitempty"`

	// InvoiceID is set iff status is prefactured or invoiced
	InvoiceID *id.ID `db:"invoice_id" json:"invoiceId,omitempty"`

	// Table part: append-only attachment references. Storage of the bytes
	// lives with an external collaborator; only metadata is kept here.
	Attachments []Attachment `db:"-" json:"attachments,omitempty"`
}

// Attachment is one line of the attachment table part.
type Attachment struct {
	LineID   id.ID     `db:"line_id" json:"lineId"`
	LineNo   int       `db:"line_no" json:"lineNo"`
	FileName string    `db:"file_name" json:"fileName"`
	FileRef  string    `db:"file_ref" json:"fileRef"`
	AddedBy  string    `db:"added_by" json:"addedBy,omitempty"`
	AddedAt  time.Time `db:"added_at" json:"addedAt"`
}

// New creates a service record in pending state.
func New(clientCode, originCode, destinationCode string, category pricing.Category, scheduledDate time.Time) *ServiceRecord {
	doc := entity.NewDocument()
	doc.Date = scheduledDate
	return &ServiceRecord{
		Document:        doc,
		ClientCode:      clientCode,
		Status:          StatusPending,
		OriginCode:      originCode,
		DestinationCode: destinationCode,
		Category:        category,
		PassengerCount:  1,
		WaitingHours:    types.Zero(),
		Attachments:     make([]Attachment, 0),
	}
}

// Normalize canonicalizes reference codes at the write boundary.
func (r *ServiceRecord) Normalize() {
	r.ClientCode = strings.ToUpper(strings.TrimSpace(r.ClientCode))
	r.OriginCode = strings.ToUpper(strings.TrimSpace(r.OriginCode))
	r.DestinationCode = strings.ToUpper(strings.TrimSpace(r.DestinationCode))
}

// Validate implements entity.Validatable.
func (r *ServiceRecord) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}

	if r.ClientCode == "" {
		return apperror.NewValidation("client is required").
			WithDetail("field", "clientCode")
	}
	if r.OriginCode == "" {
		return apperror.NewValidation("origin is required").
			WithDetail("field", "originCode")
	}
	if r.DestinationCode == "" {
		return apperror.NewValidation("destination is required").
			WithDetail("field", "destinationCode")
	}
	if !pricing.ValidCategory(r.Category) {
		return apperror.NewValidation("invalid service category").
			WithDetail("field", "category").
			WithDetail("value", string(r.Category))
	}
	if r.PassengerCount < 1 {
		return apperror.NewValidation("passenger count must be at least 1").
			WithDetail("field", "passengerCount")
	}
	if r.WaitingHours.IsNegative() {
		return apperror.NewValidation("waiting hours cannot be negative").
			WithDetail("field", "waitingHours")
	}
	if !ValidStatus(r.Status) {
		return apperror.NewValidation("unknown status").
			WithDetail("field", "status").
			WithDetail("value", string(r.Status))
	}

	if r.Status.Linked() != (r.InvoiceID != nil) {
		return apperror.NewValidation("invoice reference does not match status").
			WithDetail("field", "invoiceId").
			WithDetail("status", string(r.Status))
	}

	return nil
}

// CanModify returns a RecordLocked error when business fields may no longer
// be edited.
func (r *ServiceRecord) CanModify() error {
	if !r.Status.Editable() {
		return apperror.NewRecordLocked(r.ID, string(r.Status))
	}
	return nil
}

// AddAttachment appends an attachment line, enforcing the per-record cap.
// Attachments stay appendable after completion but freeze at invoiced.
func (r *ServiceRecord) AddAttachment(fileName, fileRef, addedBy string, addedAt time.Time) error {
	if r.Status.Terminal() {
		return apperror.NewRecordLocked(r.ID, string(r.Status))
	}
	if len(r.Attachments) >= MaxAttachments {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "attachment limit reached").
			WithDetail("max", MaxAttachments)
	}

	r.Attachments = append(r.Attachments, Attachment{
		LineID:   id.New(),
		LineNo:   len(r.Attachments) + 1,
		FileName: fileName,
		FileRef:  fileRef,
		AddedBy:  addedBy,
		AddedAt:  addedAt.UTC(),
	})
	return nil
}

// ApplyPrice stores a computed breakdown on the record.
func (r *ServiceRecord) ApplyPrice(b *pricing.Breakdown) {
	r.Price = b.Total
	r.Currency = b.Currency
	r.PriceSource = b.Source
}
