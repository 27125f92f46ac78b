package pricing

import (
	"context"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/types"
	"crewtransit/internal/domain/catalogs/location"
	"crewtransit/internal/domain/catalogs/routeprice"
	"crewtransit/pkg/logger"
)

// RouteSource resolves route price entries. Satisfied by *routeprice.Service.
type RouteSource interface {
	Lookup(ctx context.Context, originCode, destinationCode string) (*routeprice.RoutePrice, routeprice.Direction, error)
}

// LocationSource resolves locations by code. Satisfied by *location.Service.
type LocationSource interface {
	GetByCode(ctx context.Context, code string) (*location.Location, error)
}

// Source reports where the rates in a breakdown came from.
type Source string

const (
	SourceRoute    Source = "route"
	SourceFallback Source = "fallback"
)

// Input carries everything a price computation depends on. There are no
// hidden inputs: same catalog state plus same Input always yields the same
// Breakdown.
type Input struct {
	OriginCode      string
	DestinationCode string
	Category        Category
	PassengerCount  int
	WaitingHours    types.Money
}

// Breakdown is the itemized result of a price computation. Every component
// is rounded half-up to the currency's minor units; Total is their exact sum.
type Breakdown struct {
	Base                 types.Money         `json:"base"`
	ExtraPassengerCharge types.Money         `json:"extraPassengerCharge"`
	WaitingCharge        types.Money         `json:"waitingCharge"`
	CategorySurcharge    types.Money         `json:"categorySurcharge"`
	Total                types.Money         `json:"total"`
	Currency             string              `json:"currency"`
	Source               Source              `json:"source"`
	Direction            routeprice.Direction `json:"direction,omitempty"`
}

// Config holds the table-driven parts of the calculator: surcharge rates per
// category and the fallback tier table with its floor.
type Config struct {
	// CategoryRates maps a category to its surcharge rate over the base
	// price. Missing categories surcharge at zero.
	CategoryRates map[Category]types.Money

	// FallbackTiers is the class-pair default table consulted when no route
	// price entry exists.
	FallbackTiers []FallbackTier

	// MinimumPrice floors the total of fallback-priced services. Catalog
	// routes are priced as entered and never floored.
	MinimumPrice types.Money
}

// DefaultConfig returns the standard surcharge rates. Fallback tiers are
// deployment data and start empty.
func DefaultConfig() Config {
	return Config{
		CategoryRates: map[Category]types.Money{
			CategoryStandard: types.Zero(),
			CategoryVIP:      types.MustMoney("0.30"),
			CategoryMedical:  types.MustMoney("0.25"),
			CategorySecurity: types.MustMoney("0.20"),
		},
		MinimumPrice: types.Zero(),
	}
}

// Calculator derives price breakdowns from the catalogs and the fallback
// table. It performs reads only.
type Calculator struct {
	routes    RouteSource
	locations LocationSource
	cfg       Config
}

// NewCalculator creates a Calculator.
func NewCalculator(routes RouteSource, locations LocationSource, cfg Config) *Calculator {
	return &Calculator{
		routes:    routes,
		locations: locations,
		cfg:       cfg,
	}
}

type rates struct {
	base              types.Money
	perExtraPassenger types.Money
	perWaitingHour    types.Money
	currency          string
	source            Source
	direction         routeprice.Direction
}

// Calculate computes the price breakdown for a service. It never prices at
// zero on a missing route: when neither a catalog entry nor a fallback tier
// applies, the caller gets a pricing error and must block the operation.
func (c *Calculator) Calculate(ctx context.Context, in Input) (*Breakdown, error) {
	if err := c.validate(in); err != nil {
		return nil, err
	}

	r, err := c.resolveRates(ctx, in.OriginCode, in.DestinationCode)
	if err != nil {
		return nil, err
	}

	places := types.MinorUnitDigits(r.currency)

	base := types.RoundHalfUp(r.base, places)

	extra := types.Zero()
	if in.PassengerCount > 1 {
		extra = types.RoundHalfUp(
			r.perExtraPassenger.Mul(types.NewMoneyFromInt(int64(in.PassengerCount-1))),
			places,
		)
	}

	waiting := types.RoundHalfUp(r.perWaitingHour.Mul(in.WaitingHours), places)

	surcharge := types.Zero()
	if rate, ok := c.cfg.CategoryRates[in.Category]; ok && !rate.IsZero() {
		surcharge = types.RoundHalfUp(base.Mul(rate), places)
	}

	total := base.Add(extra).Add(waiting).Add(surcharge)

	if r.source == SourceFallback && total.LessThan(c.cfg.MinimumPrice) {
		// The floor absorbs the difference into the base component so the
		// breakdown still sums to the total.
		base = base.Add(c.cfg.MinimumPrice.Sub(total))
		total = c.cfg.MinimumPrice
	}

	return &Breakdown{
		Base:                 base,
		ExtraPassengerCharge: extra,
		WaitingCharge:        waiting,
		CategorySurcharge:    surcharge,
		Total:                total,
		Currency:             r.currency,
		Source:               r.source,
		Direction:            r.direction,
	}, nil
}

func (c *Calculator) validate(in Input) error {
	if in.OriginCode == "" || in.DestinationCode == "" {
		return apperror.NewValidation("origin and destination are required")
	}
	if !ValidCategory(in.Category) {
		return apperror.NewValidation("invalid service category").
			WithDetail("field", "category").
			WithDetail("value", string(in.Category))
	}
	if in.PassengerCount < 1 {
		return apperror.NewValidation("passenger count must be at least 1").
			WithDetail("field", "passengerCount")
	}
	if in.WaitingHours.IsNegative() {
		return apperror.NewValidation("waiting hours cannot be negative").
			WithDetail("field", "waitingHours")
	}
	return nil
}

func (c *Calculator) resolveRates(ctx context.Context, originCode, destinationCode string) (rates, error) {
	entry, dir, err := c.routes.Lookup(ctx, originCode, destinationCode)
	if err == nil {
		return rates{
			base:              entry.BasePrice,
			perExtraPassenger: entry.PerExtraPassenger,
			perWaitingHour:    entry.PerWaitingHour,
			currency:          entry.Currency,
			source:            SourceRoute,
			direction:         dir,
		}, nil
	}
	if !apperror.IsNotFound(err) {
		return rates{}, err
	}

	origin, err := c.locations.GetByCode(ctx, originCode)
	if err != nil {
		return rates{}, c.noRoute(originCode, destinationCode, err)
	}
	destination, err := c.locations.GetByCode(ctx, destinationCode)
	if err != nil {
		return rates{}, c.noRoute(originCode, destinationCode, err)
	}

	tier, ok := findTier(c.cfg.FallbackTiers, origin.Class, destination.Class)
	if !ok {
		return rates{}, c.noRoute(originCode, destinationCode, nil)
	}

	logger.Warn(ctx, "route priced from fallback tier",
		"origin", originCode,
		"destination", destinationCode,
		"originClass", string(origin.Class),
		"destinationClass", string(destination.Class),
	)

	return rates{
		base:              tier.BasePrice,
		perExtraPassenger: tier.PerExtraPassenger,
		perWaitingHour:    tier.PerWaitingHour,
		currency:          tier.Currency,
		source:            SourceFallback,
	}, nil
}

func (c *Calculator) noRoute(originCode, destinationCode string, cause error) error {
	appErr := apperror.NewPricing("no route price entry or fallback tier for pair").
		WithDetail("origin", originCode).
		WithDetail("destination", destinationCode)
	if cause != nil && !apperror.IsNotFound(cause) {
		return cause
	}
	return appErr
}
