package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/id"
	"crewtransit/internal/domain"
	"crewtransit/internal/domain/documents/invoice"
	"crewtransit/internal/domain/export"
	"crewtransit/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler provides HTTP handlers for invoice aggregation.
type InvoiceHandler struct {
	*BaseHandler
	service   *invoice.Service
	validator *export.Validator
}

// NewInvoiceHandler creates an invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service, validator *export.Validator) *InvoiceHandler {
	return &InvoiceHandler{
		BaseHandler: base,
		service:     service,
		validator:   validator,
	}
}

// List handles GET /invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := invoice.ListFilter{
		ListFilter: domain.ListFilter{
			Search:         c.Query("search"),
			Limit:          h.ParseIntQuery(c, "limit", 50),
			Offset:         h.ParseIntQuery(c, "offset", 0),
			OrderBy:        c.DefaultQuery("orderBy", "-date"),
			IncludeDeleted: c.Query("includeDeleted") == "true",
		},
	}

	if clientCode := c.Query("clientCode"); clientCode != "" {
		filter.ClientCode = &clientCode
	}

	if status := c.Query("status"); status != "" {
		st := invoice.Status(status)
		filter.Status = &st
	}

	var err error
	if filter.DateFrom, err = parseTimeQuery(c, "dateFrom"); err != nil {
		h.Error(c, err)
		return
	}
	if filter.DateTo, err = parseTimeQuery(c, "dateTo"); err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, inv := range result.Items {
		items[i] = dto.FromInvoice(inv)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), invID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromInvoice(inv))
}

// Create handles POST /invoices - aggregate completed services into a draft.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	inv, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromInvoice(inv))
}

// ValidateExport handles GET /invoices/:id/export - builds the export
// document and runs the gate without changing any state. Used to preview
// finalization problems.
func (h *InvoiceHandler) ValidateExport(c *gin.Context) {
	invID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.BuildExportDocument(c.Request.Context(), invID)
	if err != nil {
		h.Error(c, err)
		return
	}

	result := h.validator.Validate(doc)

	c.JSON(http.StatusOK, dto.ExportValidationResponse{
		Valid:    result.Valid,
		Errors:   result.Errors,
		Warnings: result.Warnings,
		Document: doc,
	})
}

// Finalize handles POST /invoices/:id/finalize.
func (h *InvoiceHandler) Finalize(c *gin.Context) {
	invID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	ctx := c.Request.Context()

	doc, err := h.service.BuildExportDocument(ctx, invID)
	if err != nil {
		h.Error(c, err)
		return
	}

	inv, err := h.service.Finalize(ctx, invID, doc)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromInvoice(inv))
}

// Delete handles DELETE /invoices/:id - deletes a draft and releases its
// services back to completed.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	invID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), invID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
