package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/domain/catalogs/ingest"
)

// IngestHandler accepts bulk catalog uploads.
type IngestHandler struct {
	*BaseHandler
	service *ingest.Service
}

func NewIngestHandler(base *BaseHandler, service *ingest.Service) *IngestHandler {
	return &IngestHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Run handles POST /catalog/ingest. The body is a JSON array of records;
// item failures are reported per item and never abort the run, so the
// response is always 200 with a report.
func (h *IngestHandler) Run(c *gin.Context) {
	var records []ingest.Record
	if err := c.ShouldBindJSON(&records); err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return
	}
	if len(records) == 0 {
		h.Error(c, apperror.NewValidation("empty record list"))
		return
	}

	report := h.service.Run(c.Request.Context(), records)

	c.JSON(http.StatusOK, report)
}
