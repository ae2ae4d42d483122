// Package interest holds the pure calculation primitives of the accrual engine:
// day-count conventions, simple and compound interest formulas and the final
// rounding policy. Nothing in here touches storage or the clock.
package interest

import (
	"fmt"
	"time"

	"github.com/segyhp/deposit-engine/pkg/utils"
)

// Method is a day-count convention.
type Method string

const (
	Actual365 Method = "ACTUAL_365"
	Actual360 Method = "ACTUAL_360"
	Thirty360 Method = "30_360"
)

// DefaultMethod is used when a calculation does not name a convention.
const DefaultMethod = Actual365

// Valid reports whether m is one of the supported conventions.
func (m Method) Valid() bool {
	switch m {
	case Actual365, Actual360, Thirty360:
		return true
	}
	return false
}

// ParseMethod converts external input into a Method. Empty input yields DefaultMethod.
func ParseMethod(s string) (Method, error) {
	if s == "" {
		return DefaultMethod, nil
	}
	m := Method(s)
	if !m.Valid() {
		return "", fmt.Errorf("unsupported calculation method %q", s)
	}
	return m, nil
}

// DayCount is the interest basis of a date range.
type DayCount struct {
	Days      int `json:"days"`
	YearBasis int `json:"year_basis"`
}

// CountDays converts [start, end) into a day count under the given convention.
// An end date before the start date yields a negative day count.
func CountDays(start, end time.Time, method Method) (DayCount, error) {
	switch method {
	case Actual365:
		return DayCount{Days: utils.DaysBetween(start, end), YearBasis: 365}, nil
	case Actual360:
		return DayCount{Days: utils.DaysBetween(start, end), YearBasis: 360}, nil
	case Thirty360:
		return DayCount{Days: days360(start, end), YearBasis: 360}, nil
	default:
		return DayCount{}, fmt.Errorf("unsupported calculation method %q", method)
	}
}

// days360 caps the day-of-month of both dates at 30.
func days360(start, end time.Time) int {
	y1, m1, d1 := start.Date()
	y2, m2, d2 := end.Date()

	if d1 > 30 {
		d1 = 30
	}
	if d2 > 30 {
		d2 = 30
	}
	return (y2-y1)*360 + int(m2-m1)*30 + (d2 - d1)
}
