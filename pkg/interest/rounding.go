package interest

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rounding selects how the final figure of a calculation is rounded.
type Rounding string

const (
	// RoundHalfUp rounds halves away from zero on exact decimal values, so
	// 100.005 becomes 100.01. There is no binary floating point involved.
	RoundHalfUp Rounding = "ROUND"
	RoundFloor  Rounding = "FLOOR"
	RoundCeil   Rounding = "CEIL"
)

const (
	DefaultRounding      = RoundHalfUp
	DefaultDecimalPlaces = 2
	// RatePlaces is the precision kept for effective rates.
	RatePlaces = 6
)

// Valid reports whether r is a supported rounding method.
func (r Rounding) Valid() bool {
	switch r {
	case RoundHalfUp, RoundFloor, RoundCeil:
		return true
	}
	return false
}

// ParseRounding converts external input into a Rounding. Empty input yields DefaultRounding.
func ParseRounding(s string) (Rounding, error) {
	if s == "" {
		return DefaultRounding, nil
	}
	r := Rounding(s)
	if !r.Valid() {
		return "", fmt.Errorf("unsupported rounding method %q", s)
	}
	return r, nil
}

// Policy is the rounding applied once, at the boundary of a calculation.
type Policy struct {
	Method Rounding `json:"rounding_method"`
	Places int32    `json:"decimal_places"`
}

// DefaultPolicy rounds half-up to two decimal places.
func DefaultPolicy() Policy {
	return Policy{Method: DefaultRounding, Places: DefaultDecimalPlaces}
}

// Apply rounds value according to the policy.
func (p Policy) Apply(value decimal.Decimal) (decimal.Decimal, error) {
	switch p.Method {
	case RoundHalfUp:
		return value.Round(p.Places), nil
	case RoundFloor:
		return value.RoundFloor(p.Places), nil
	case RoundCeil:
		return value.RoundCeil(p.Places), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported rounding method %q", p.Method)
	}
}
