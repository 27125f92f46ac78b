// Package location provides the Location catalog: hotels, ports, airports and
// other pickup/dropoff points referenced by transport services.
package location

import (
	"context"
	"strings"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/entity"
)

// Class defines the semantic class of a location. The pricing fallback table
// is keyed by class pairs, so every location must carry one.
type Class string

const (
	ClassHotel    Class = "hotel"
	ClassPort     Class = "port"
	ClassAirport  Class = "airport"
	ClassOffice   Class = "office"
	ClassHospital Class = "hospital"
	ClassOther    Class = "other"
)

// Location represents a pickup or dropoff point.
type Location struct {
	entity.Catalog

	// Class is the semantic class used for fallback pricing
	Class Class `db:"class" json:"class"`

	// City is the city the location belongs to
	City string `db:"city" json:"city,omitempty"`

	// Address is a free-text street address
	Address string `db:"address" json:"address,omitempty"`
}

// New creates a new Location with required fields.
func New(code, name string, class Class) *Location {
	return &Location{
		Catalog: entity.NewCatalog(code, name),
		Class:   class,
	}
}

// Normalize applies write-boundary canonicalization: codes are stored upper
// case so lookups are case-insensitive without per-query folding.
func (l *Location) Normalize() {
	l.Code = strings.ToUpper(strings.TrimSpace(l.Code))
	l.Name = strings.TrimSpace(l.Name)
}

// Validate implements entity.Validatable.
func (l *Location) Validate(ctx context.Context) error {
	if err := l.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidClass(l.Class) {
		return apperror.NewValidation("invalid location class").
			WithDetail("field", "class").
			WithDetail("value", string(l.Class))
	}

	return nil
}

func isValidClass(c Class) bool {
	switch c {
	case ClassHotel, ClassPort, ClassAirport, ClassOffice, ClassHospital, ClassOther:
		return true
	}
	return false
}
