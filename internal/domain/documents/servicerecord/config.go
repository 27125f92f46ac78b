package servicerecord

import "crewtransit/pkg/numerator"

const (
	// NumberPrefix is the document number prefix for service records.
	NumberPrefix = "SRV"

	// NumeratorStrategy uses cached range allocation: service records are
	// high-volume and gaps in their numbering are acceptable.
	NumeratorStrategy = numerator.StrategyCached
)
