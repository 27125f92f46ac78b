package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/id"
	"crewtransit/internal/domain"
	"crewtransit/internal/domain/documents/servicerecord"
	"crewtransit/internal/infrastructure/http/v1/dto"
)

// ServiceRecordHandler provides HTTP handlers for service records.
type ServiceRecordHandler struct {
	*BaseHandler
	service *servicerecord.Service
}

// NewServiceRecordHandler creates a service record handler.
func NewServiceRecordHandler(base *BaseHandler, service *servicerecord.Service) *ServiceRecordHandler {
	return &ServiceRecordHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /service-records.
func (h *ServiceRecordHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := servicerecord.ListFilter{
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
		st := servicerecord.Status(status)
		if !servicerecord.ValidStatus(st) {
			h.Error(c, apperror.NewValidation("unknown status").WithDetail("value", status))
			return
		}
		filter.Status = &st
	}

	if invoiceID := c.Query("invoiceId"); invoiceID != "" {
		parsed, err := id.Parse(invoiceID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid invoiceId format"))
			return
		}
		filter.InvoiceID = &parsed
	}

	filter.Unlinked = c.Query("unlinked") == "true"

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
	for i, rec := range result.Items {
		items[i] = dto.FromServiceRecord(rec)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /service-records/:id.
func (h *ServiceRecordHandler) Get(c *gin.Context) {
	recID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	rec, err := h.service.GetByID(c.Request.Context(), recID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromServiceRecord(rec))
}

// Create handles POST /service-records. The record is priced during
// creation; a pricing failure blocks it.
func (h *ServiceRecordHandler) Create(c *gin.Context) {
	var req dto.CreateServiceRecordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), rec); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromServiceRecord(rec))
}

// Update handles PUT /service-records/:id. Only editable records accept
// changes; the price is recomputed from the updated inputs.
func (h *ServiceRecordHandler) Update(c *gin.Context) {
	recID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateServiceRecordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.GetByID(c.Request.Context(), recID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(rec)

	if err := h.service.Update(c.Request.Context(), rec); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromServiceRecord(rec))
}

// ChangeStatus handles POST /service-records/:id/status.
func (h *ServiceRecordHandler) ChangeStatus(c *gin.Context) {
	recID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.ChangeStatus(c.Request.Context(), recID, req.Status)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromServiceRecord(rec))
}

// AddAttachment handles POST /service-records/:id/attachments.
func (h *ServiceRecordHandler) AddAttachment(c *gin.Context) {
	recID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.AddAttachmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.AddAttachment(c.Request.Context(), recID, req.FileName, req.FileRef)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromServiceRecord(rec))
}

// Delete handles DELETE /service-records/:id - soft delete of editable records.
func (h *ServiceRecordHandler) Delete(c *gin.Context) {
	recID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), recID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperror.NewValidation("invalid time format (RFC3339 expected)").
			WithDetail("param", key)
	}
	return &t, nil
}
