// Package pricing computes deterministic price breakdowns for transport
// services from the route price catalog, with a class-based fallback tier
// table for pairs that have no catalog entry.
package pricing

// Category classifies a transport service for surcharge purposes.
type Category string

const (
	CategoryStandard Category = "standard"
	CategoryVIP      Category = "vip"
	CategoryMedical  Category = "medical"
	CategorySecurity Category = "security"
)

// ValidCategory reports whether c is a known service category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryStandard, CategoryVIP, CategoryMedical, CategorySecurity:
		return true
	}
	return false
}
