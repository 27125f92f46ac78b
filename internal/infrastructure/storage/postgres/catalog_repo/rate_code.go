package catalog_repo

import (
	"crewtransit/internal/domain/catalogs/ratecode"
	"crewtransit/internal/infrastructure/storage/postgres"
)

const rateCodeTable = "cat_rate_codes"

// RateCodeRepo implements ratecode.Repository.
type RateCodeRepo struct {
	*BaseCatalogRepo[*ratecode.RateCode]
}

// NewRateCodeRepo creates a new rate code repository.
func NewRateCodeRepo(txManager *postgres.TxManager) *RateCodeRepo {
	return &RateCodeRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*ratecode.RateCode](
			txManager,
			rateCodeTable,
			postgres.ExtractDBColumns[ratecode.RateCode](),
			func() *ratecode.RateCode { return &ratecode.RateCode{} },
		),
	}
}
