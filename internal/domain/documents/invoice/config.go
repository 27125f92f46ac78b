package invoice

import "crewtransit/pkg/numerator"

const (
	// NumberPrefix is used when the caller does not supply an invoice number.
	NumberPrefix = "INV"

	// NumeratorStrategy is strict: invoice numbers are a primary accounting
	// sequence and must be gap-free.
	NumeratorStrategy = numerator.StrategyStrict
)
