package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// pricePlaces is the fixed number of fractional digits a Price carries.
const pricePlaces = 4

// Price is a non-negative monetary amount quantized to 4 fractional
// digits, rounded half up. Arithmetic returns new values; operations
// that would produce a negative or undefined result return an error.
type Price struct {
	value decimal.Decimal
}

// NewPrice creates a price from a decimal value
func NewPrice(d decimal.Decimal) (Price, error) {
	if d.IsNegative() {
		return Price{}, fmt.Errorf("%w: %s", ErrNegativePrice, d)
	}
	return Price{value: d.Round(pricePlaces)}, nil
}

// NewPriceFromString creates a price from its decimal string form
func NewPriceFromString(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return NewPrice(d)
}

// NewPriceFromFloat creates a price from a float64
func NewPriceFromFloat(f float64) (Price, error) {
	return NewPrice(decimal.NewFromFloat(f))
}

// MustPrice is a convenience constructor for prices known to be valid.
// It panics on invalid input and is intended for tests and static wiring.
func MustPrice(s string) Price {
	p, err := NewPriceFromString(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Decimal returns the underlying decimal value
func (p Price) Decimal() decimal.Decimal {
	return p.value
}

// Add returns the sum of two prices
func (p Price) Add(other Price) Price {
	return Price{value: p.value.Add(other.value).Round(pricePlaces)}
}

// Sub returns the difference of two prices.
// Subtraction below zero is forbidden.
func (p Price) Sub(other Price) (Price, error) {
	return NewPrice(p.value.Sub(other.value))
}

// Mul returns the price scaled by a non-negative factor
func (p Price) Mul(factor decimal.Decimal) (Price, error) {
	return NewPrice(p.value.Mul(factor))
}

// Div returns the price divided by a non-zero divisor
func (p Price) Div(divisor decimal.Decimal) (Price, error) {
	if divisor.IsZero() {
		return Price{}, ErrDivisionByZero
	}
	return NewPrice(p.value.Div(divisor))
}

// Cmp compares two prices: -1 if p < other, 0 if equal, +1 if p > other
func (p Price) Cmp(other Price) int {
	return p.value.Cmp(other.value)
}

// Equal reports whether two prices represent the same amount
func (p Price) Equal(other Price) bool {
	return p.value.Cmp(other.value) == 0
}

// LessThan reports whether p < other
func (p Price) LessThan(other Price) bool {
	return p.value.Cmp(other.value) < 0
}

// GreaterThan reports whether p > other
func (p Price) GreaterThan(other Price) bool {
	return p.value.Cmp(other.value) > 0
}

// IsZero reports whether the price is zero
func (p Price) IsZero() bool {
	return p.value.IsZero()
}

// Float64 returns the closest float64 representation
func (p Price) Float64() float64 {
	return p.value.InexactFloat64()
}

func (p Price) String() string {
	return p.value.StringFixed(pricePlaces)
}
