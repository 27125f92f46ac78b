package dto

import (
	"crewtransit/internal/core/types"
	"crewtransit/internal/domain/pricing"
)

// QuoteRequest asks for a price breakdown without creating a record.
type QuoteRequest struct {
	OriginCode      string           `json:"originCode" binding:"required"`
	DestinationCode string           `json:"destinationCode" binding:"required"`
	Category        pricing.Category `json:"category" binding:"required"`
	PassengerCount  int              `json:"passengerCount" binding:"required,min=1"`
	WaitingHours    types.Money      `json:"waitingHours"`
}

// ToInput converts the request to a pricing input.
func (r *QuoteRequest) ToInput() pricing.Input {
	return pricing.Input{
		OriginCode:      r.OriginCode,
		DestinationCode: r.DestinationCode,
		Category:        r.Category,
		PassengerCount:  r.PassengerCount,
		WaitingHours:    r.WaitingHours,
	}
}
