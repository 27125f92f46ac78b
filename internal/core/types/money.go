// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewMoneyFromInt creates a Money value from an integer.
func NewMoneyFromInt(i int64) Money {
	return decimal.NewFromInt(i)
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

var half = decimal.New(5, -1)

// RoundHalfUp rounds to the given number of decimal places with ties going up.
// decimal.Round ties away from zero, which differs for negative values, so the
// half-up rule is spelled out here once and used for every persisted price.
func RoundHalfUp(d Money, places int32) Money {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}

// minorUnitDigits maps ISO 4217 currency codes to their minor-unit precision.
// Unlisted currencies default to 2.
var minorUnitDigits = map[string]int32{
	"USD": 2,
	"EUR": 2,
	"PAB": 2,
	"GBP": 2,
	"JPY": 0,
	"CLP": 0,
}

// MinorUnitDigits returns the number of minor-unit decimal places for a currency.
func MinorUnitDigits(currency string) int32 {
	if d, ok := minorUnitDigits[currency]; ok {
		return d
	}
	return 2
}

// RoundToCurrency rounds a monetary amount to the currency's minor-unit
// precision using half-up rounding.
func RoundToCurrency(d Money, currency string) Money {
	return RoundHalfUp(d, MinorUnitDigits(currency))
}
