package interest

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Compounding is how often accrued interest is folded into principal.
type Compounding string

const (
	CompoundDaily     Compounding = "DAILY"
	CompoundMonthly   Compounding = "MONTHLY"
	CompoundQuarterly Compounding = "QUARTERLY"
	CompoundAnnually  Compounding = "ANNUALLY"
	CompoundMaturity  Compounding = "MATURITY"
)

// Valid reports whether c is a supported compounding frequency.
func (c Compounding) Valid() bool {
	switch c {
	case CompoundDaily, CompoundMonthly, CompoundQuarterly, CompoundAnnually, CompoundMaturity:
		return true
	}
	return false
}

// PeriodsPerYear returns the compounding periods in one year of the given basis.
// MATURITY has no intermediate periods and reports compounds=false.
func PeriodsPerYear(c Compounding, yearBasis int) (periods int, compounds bool, err error) {
	switch c {
	case CompoundDaily:
		return yearBasis, true, nil
	case CompoundMonthly:
		return 12, true, nil
	case CompoundQuarterly:
		return 4, true, nil
	case CompoundAnnually:
		return 1, true, nil
	case CompoundMaturity:
		return 0, false, nil
	default:
		return 0, false, fmt.Errorf("unsupported compounding frequency %q", c)
	}
}

// SimpleInterest computes principal * rate * days / yearBasis, unrounded.
func SimpleInterest(principal, rate decimal.Decimal, dc DayCount) decimal.Decimal {
	if dc.YearBasis == 0 {
		return decimal.Zero
	}
	return principal.Mul(rate).
		Mul(decimal.NewFromInt(int64(dc.Days))).
		Div(decimal.NewFromInt(int64(dc.YearBasis)))
}

// CompoundInterest computes principal * (1 + rate/n)^periods - principal, unrounded.
// periods = days / (yearBasis / n) and may be fractional. MATURITY falls back to
// SimpleInterest.
func CompoundInterest(principal, rate decimal.Decimal, dc DayCount, c Compounding) (decimal.Decimal, error) {
	n, compounds, err := PeriodsPerYear(c, dc.YearBasis)
	if err != nil {
		return decimal.Zero, err
	}
	if !compounds || n == 0 || dc.YearBasis == 0 {
		return SimpleInterest(principal, rate, dc), nil
	}

	periodsPerYear := decimal.NewFromInt(int64(n))
	// days * n / basis is the same ratio as days / (basis / n) without the
	// repeating fraction in basis / n.
	elapsed := decimal.NewFromInt(int64(dc.Days)).
		Mul(periodsPerYear).
		Div(decimal.NewFromInt(int64(dc.YearBasis)))

	growth := decimal.NewFromInt(1).Add(rate.Div(periodsPerYear)).Pow(elapsed)
	return principal.Mul(growth).Sub(principal), nil
}

// EffectiveRate is the annual yield of rate under the given compounding:
// (1 + rate/n)^n - 1, or rate itself when nothing compounds.
func EffectiveRate(rate decimal.Decimal, c Compounding, yearBasis int) (decimal.Decimal, error) {
	n, compounds, err := PeriodsPerYear(c, yearBasis)
	if err != nil {
		return decimal.Zero, err
	}
	if !compounds || n == 0 {
		return rate, nil
	}
	periods := decimal.NewFromInt(int64(n))
	one := decimal.NewFromInt(1)
	return one.Add(rate.Div(periods)).Pow(periods).Sub(one), nil
}
