package pricing

import (
	"crewtransit/internal/core/types"
	"crewtransit/internal/domain/catalogs/location"
)

// FallbackTier is one row of the distance-tier default table, keyed by the
// unordered pair of location classes. It is consulted only when the route
// price catalog has no entry for the pair.
type FallbackTier struct {
	ClassA            location.Class
	ClassB            location.Class
	BasePrice         types.Money
	PerExtraPassenger types.Money
	PerWaitingHour    types.Money
	Currency          string
}

// Matches reports whether the tier covers the given class pair in either
// order.
func (t FallbackTier) Matches(a, b location.Class) bool {
	return (t.ClassA == a && t.ClassB == b) || (t.ClassA == b && t.ClassB == a)
}

func findTier(tiers []FallbackTier, a, b location.Class) (FallbackTier, bool) {
	for _, t := range tiers {
		if t.Matches(a, b) {
			return t, true
		}
	}
	return FallbackTier{}, false
}
