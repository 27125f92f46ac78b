package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crewtransit/internal/domain/pricing"
	"crewtransit/internal/infrastructure/http/v1/dto"
)

// PricingHandler exposes the price calculator for standalone quotes.
type PricingHandler struct {
	*BaseHandler
	calculator *pricing.Calculator
}

func NewPricingHandler(base *BaseHandler, calculator *pricing.Calculator) *PricingHandler {
	return &PricingHandler{
		BaseHandler: base,
		calculator:  calculator,
	}
}

// Quote handles POST /pricing/quote. The quote is deterministic and has no
// side effects, so repeated calls with the same catalog state return the
// same breakdown.
func (h *PricingHandler) Quote(c *gin.Context) {
	var req dto.QuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	breakdown, err := h.calculator.Calculate(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, breakdown)
}
