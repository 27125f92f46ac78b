// Package routeprice provides the RoutePrice catalog: per-route price entries
// keyed by an (origin, destination) location pair.
package routeprice

import (
	"context"
	"fmt"
	"strings"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/entity"
	"crewtransit/internal/core/types"
)

// RoutePrice is a single route price entry. Entries are direction-specific:
// HOTEL→PORT and PORT→HOTEL may carry different prices. The reverse direction
// is only consulted when the service is configured for symmetric lookup.
type RoutePrice struct {
	entity.Catalog

	// OriginCode references a Location code
	OriginCode string `db:"origin_code" json:"originCode"`

	// DestinationCode references a Location code
	DestinationCode string `db:"destination_code" json:"destinationCode"`

	// BasePrice is the price for one passenger, no waiting
	BasePrice types.Money `db:"base_price" json:"basePrice"`

	// PerExtraPassenger is charged for each passenger beyond the first
	PerExtraPassenger types.Money `db:"per_extra_passenger" json:"perExtraPassenger"`

	// PerWaitingHour is charged per waiting hour
	PerWaitingHour types.Money `db:"per_waiting_hour" json:"perWaitingHour"`

	// Currency is the ISO 4217 code of all amounts in this entry
	Currency string `db:"currency" json:"currency"`
}

// New creates a route price entry. The catalog code is derived from the pair
// so the (origin, destination) uniqueness rides on the code unique index.
func New(originCode, destinationCode string, basePrice types.Money, currency string) *RoutePrice {
	rp := &RoutePrice{
		OriginCode:      originCode,
		DestinationCode: destinationCode,
		BasePrice:       basePrice,
		Currency:        currency,
	}
	rp.Catalog = entity.NewCatalog(RouteCode(originCode, destinationCode), fmt.Sprintf("%s → %s", originCode, destinationCode))
	return rp
}

// RouteCode builds the canonical catalog code for a directed pair.
func RouteCode(originCode, destinationCode string) string {
	return strings.ToUpper(strings.TrimSpace(originCode)) + ">" + strings.ToUpper(strings.TrimSpace(destinationCode))
}

// Normalize applies write-boundary canonicalization.
func (r *RoutePrice) Normalize() {
	r.OriginCode = strings.ToUpper(strings.TrimSpace(r.OriginCode))
	r.DestinationCode = strings.ToUpper(strings.TrimSpace(r.DestinationCode))
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	r.Code = RouteCode(r.OriginCode, r.DestinationCode)
	if r.Name == "" {
		r.Name = fmt.Sprintf("%s → %s", r.OriginCode, r.DestinationCode)
	}
}

// Validate implements entity.Validatable.
func (r *RoutePrice) Validate(ctx context.Context) error {
	if err := r.Catalog.Validate(ctx); err != nil {
		return err
	}

	if r.OriginCode == "" {
		return apperror.NewValidation("origin is required").
			WithDetail("field", "originCode")
	}
	if r.DestinationCode == "" {
		return apperror.NewValidation("destination is required").
			WithDetail("field", "destinationCode")
	}
	if r.OriginCode == r.DestinationCode {
		return apperror.NewValidation("origin and destination must differ").
			WithDetail("field", "destinationCode")
	}

	if r.BasePrice.IsNegative() {
		return apperror.NewValidation("base price cannot be negative").
			WithDetail("field", "basePrice")
	}
	if r.PerExtraPassenger.IsNegative() {
		return apperror.NewValidation("per-passenger price cannot be negative").
			WithDetail("field", "perExtraPassenger")
	}
	if r.PerWaitingHour.IsNegative() {
		return apperror.NewValidation("per-hour price cannot be negative").
			WithDetail("field", "perWaitingHour")
	}

	if len(r.Currency) != 3 {
		return apperror.NewValidation("currency must be a 3-letter ISO code").
			WithDetail("field", "currency").
			WithDetail("value", r.Currency)
	}

	return nil
}
