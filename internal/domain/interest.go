package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/pkg/interest"
	"github.com/shopspring/decimal"
)

// InterestStatus is the lifecycle of an interest record.
type InterestStatus string

const (
	InterestStatusCalculated InterestStatus = "CALCULATED"
	InterestStatusPaid       InterestStatus = "PAID"
)

// InterestType tags why a payment was made.
type InterestType string

const (
	InterestTypeRegular    InterestType = "REGULAR"
	InterestTypeMaturity   InterestType = "MATURITY"
	InterestTypeAdjustment InterestType = "ADJUSTMENT"
)

func (t InterestType) Valid() bool {
	switch t {
	case InterestTypeRegular, InterestTypeMaturity, InterestTypeAdjustment:
		return true
	}
	return false
}

// CalculationConfig selects the day-count convention and final rounding.
type CalculationConfig struct {
	Method   interest.Method `json:"calculation_method"`
	Rounding interest.Policy `json:"rounding"`
}

// DefaultCalculationConfig is ACTUAL_365 rounded half-up to two places.
func DefaultCalculationConfig() CalculationConfig {
	return CalculationConfig{
		Method:   interest.DefaultMethod,
		Rounding: interest.DefaultPolicy(),
	}
}

// WithDefaults fills unset fields from DefaultCalculationConfig.
func (c CalculationConfig) WithDefaults() CalculationConfig {
	if c.Method == "" {
		c.Method = interest.DefaultMethod
	}
	if c.Rounding.Method == "" {
		c.Rounding = interest.DefaultPolicy()
	}
	return c
}

// InterestCalculationResult is the outcome of one accrual calculation.
// TotalAmount always equals PrincipalAmount + AppliedInterest.
type InterestCalculationResult struct {
	PositionID           uuid.UUID            `json:"position_id"`
	CalculationDate      time.Time            `json:"calculation_date"`
	StartDate            time.Time            `json:"start_date"`
	PrincipalAmount      decimal.Decimal      `json:"principal_amount"`
	InterestRate         decimal.Decimal      `json:"interest_rate"`
	CalculationMethod    interest.Method      `json:"calculation_method"`
	CompoundingFrequency interest.Compounding `json:"compounding_frequency"`
	DayCount             int                  `json:"day_count"`
	YearBasis            int                  `json:"year_basis"`
	SimpleInterest       decimal.Decimal      `json:"simple_interest"`
	CompoundInterest     decimal.Decimal      `json:"compound_interest"`
	AppliedInterest      decimal.Decimal      `json:"applied_interest"`
	AccruedToDate        decimal.Decimal      `json:"accrued_to_date"`
	TotalAmount          decimal.Decimal      `json:"total_amount"`
	EffectiveRate        decimal.Decimal      `json:"effective_rate"`
}

// InterestRecord is a persisted interest line. Only PAID records have moved money.
type InterestRecord struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	PositionID        uuid.UUID       `json:"position_id" db:"position_id"`
	CalculationDate   time.Time       `json:"calculation_date" db:"calculation_date"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	InterestRate      decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	CalculationMethod interest.Method `json:"calculation_method" db:"calculation_method"`
	DayCount          int             `json:"day_count" db:"day_count"`
	SimpleInterest    decimal.Decimal `json:"simple_interest" db:"simple_interest"`
	CompoundInterest  decimal.Decimal `json:"compound_interest" db:"compound_interest"`
	AccruedInterest   decimal.Decimal `json:"accrued_interest" db:"accrued_interest"`
	InterestAmount    decimal.Decimal `json:"interest_amount" db:"interest_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount" db:"total_amount"`
	EffectiveRate     decimal.Decimal `json:"effective_rate" db:"effective_rate"`
	InterestType      InterestType    `json:"interest_type" db:"interest_type"`
	Status            InterestStatus  `json:"status" db:"status"`
	PaymentDate       *time.Time      `json:"payment_date,omitempty" db:"payment_date"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// PositionFailure is one item a batch could not process.
type PositionFailure struct {
	PositionID uuid.UUID `json:"position_id"`
	Error      string    `json:"error"`
}

// BatchCalculationResult is what a per-user batch produced. A failed position
// never aborts the batch.
type BatchCalculationResult struct {
	UserID   string                       `json:"user_id"`
	AsOf     time.Time                    `json:"as_of"`
	Results  []*InterestCalculationResult `json:"results"`
	Failures []PositionFailure            `json:"failures"`
	Skipped  int                          `json:"skipped"`
}

// DTOs for requests and responses

type PayInterestRequest struct {
	Amount       decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
	PaymentDate  string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	InterestType InterestType    `json:"interest_type" validate:"omitempty,oneof=REGULAR MATURITY ADJUSTMENT"`
}

type RecordInterestResponse struct {
	RecordID uuid.UUID                  `json:"record_id"`
	Result   *InterestCalculationResult `json:"result"`
}
