package ratecode

import (
	"crewtransit/internal/domain"
)

// Repository defines the interface for RateCode persistence.
type Repository interface {
	domain.CatalogRepository[*RateCode]
}
