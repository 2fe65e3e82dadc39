// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
// All amounts that reach storage or the wire are rounded to 2 decimal
// places with RoundCents.
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
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundCents rounds to 2 decimal places, half away from zero.
// Every intermediate amount (line subtotals included) goes through this
// so the sum of lines and the document total cannot drift by a cent.
func RoundCents(m Money) Money {
	return m.Round(2)
}

// MulRounded multiplies quantity by unit price and rounds to cents.
func MulRounded(qty int64, unitPrice Money) Money {
	return RoundCents(unitPrice.Mul(decimal.NewFromInt(qty)))
}
