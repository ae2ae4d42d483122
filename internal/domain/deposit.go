package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/pkg/interest"
	"github.com/segyhp/deposit-engine/pkg/utils"
	"github.com/shopspring/decimal"
)

// DepositType classifies a deposit instrument.
type DepositType string

const (
	DepositTypeDemand     DepositType = "DEMAND"
	DepositTypeTime       DepositType = "TIME"
	DepositTypeNotice     DepositType = "NOTICE"
	DepositTypeStructured DepositType = "STRUCTURED"
)

func (t DepositType) Valid() bool {
	switch t {
	case DepositTypeDemand, DepositTypeTime, DepositTypeNotice, DepositTypeStructured:
		return true
	}
	return false
}

// Accrues reports whether the accrual engine computes interest for this type.
func (t DepositType) Accrues() bool {
	switch t {
	case DepositTypeDemand, DepositTypeTime:
		return true
	case DepositTypeNotice, DepositTypeStructured:
		return false
	}
	return false
}

// RateType tells whether the product rate can change during the term.
type RateType string

const (
	RateTypeFixed    RateType = "FIXED"
	RateTypeFloating RateType = "FLOATING"
)

func (r RateType) Valid() bool {
	switch r {
	case RateTypeFixed, RateTypeFloating:
		return true
	}
	return false
}

// DepositProductDetails describes one deposit instrument: its rate, compounding
// and term. Maturity processing mutates it in place.
type DepositProductDetails struct {
	ID                         uuid.UUID            `json:"id" db:"id"`
	Name                       string               `json:"name" db:"name"`
	Bank                       string               `json:"bank" db:"bank"`
	Currency                   string               `json:"currency" db:"currency"`
	DepositType                DepositType          `json:"deposit_type" db:"deposit_type"`
	InterestRate               decimal.Decimal      `json:"interest_rate" db:"interest_rate"`
	RateType                   RateType             `json:"rate_type" db:"rate_type"`
	CompoundingFrequency       interest.Compounding `json:"compounding_frequency" db:"compounding_frequency"`
	TermMonths                 *int                 `json:"term_months,omitempty" db:"term_months"`
	StartDate                  time.Time            `json:"start_date" db:"start_date"`
	MaturityDate               *time.Time           `json:"maturity_date,omitempty" db:"maturity_date"`
	AutoRenewal                bool                 `json:"auto_renewal" db:"auto_renewal"`
	EarlyWithdrawalAllowed     bool                 `json:"early_withdrawal_allowed" db:"early_withdrawal_allowed"`
	EarlyWithdrawalPenaltyRate decimal.Decimal      `json:"early_withdrawal_penalty_rate" db:"early_withdrawal_penalty_rate"`
	InsuranceCoverage          decimal.Decimal      `json:"insurance_coverage" db:"insurance_coverage"`
	CreatedAt                  time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt                  time.Time            `json:"updated_at" db:"updated_at"`
}

// Renew restarts the term on today for termMonths months.
func (p *DepositProductDetails) Renew(today time.Time, termMonths int) {
	start := utils.TruncateToDate(today)
	maturity := utils.AddMonths(start, termMonths)
	term := termMonths

	p.StartDate = start
	p.MaturityDate = &maturity
	p.TermMonths = &term
}

// TransferToDemand converts a time deposit into a demand deposit compounding daily.
func (p *DepositProductDetails) TransferToDemand() {
	p.DepositType = DepositTypeDemand
	p.MaturityDate = nil
	p.TermMonths = nil
	p.CompoundingFrequency = interest.CompoundDaily
}

// DepositPosition is one user's holding of a deposit product. Balance only moves
// when interest is paid; accrued but unpaid interest is not part of it.
type DepositPosition struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      string          `json:"user_id" db:"user_id"`
	PortfolioID uuid.UUID       `json:"portfolio_id" db:"portfolio_id"`
	ProductID   uuid.UUID       `json:"product_id" db:"product_id"`
	Principal   decimal.Decimal `json:"principal" db:"principal"`
	Balance     decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

func (p *DepositPosition) BelongsTo(userID string) bool {
	return p.UserID == userID
}

// DTOs for requests and responses

type CreateProductRequest struct {
	Name                       string               `json:"name" validate:"required"`
	Bank                       string               `json:"bank" validate:"required"`
	Currency                   string               `json:"currency" validate:"required,len=3"`
	DepositType                DepositType          `json:"deposit_type" validate:"required,oneof=DEMAND TIME NOTICE STRUCTURED"`
	InterestRate               decimal.Decimal      `json:"interest_rate" validate:"decimal_gte=0"`
	RateType                   RateType             `json:"rate_type" validate:"required,oneof=FIXED FLOATING"`
	CompoundingFrequency       interest.Compounding `json:"compounding_frequency" validate:"required,oneof=DAILY MONTHLY QUARTERLY ANNUALLY MATURITY"`
	TermMonths                 *int                 `json:"term_months,omitempty" validate:"omitempty,gt=0"`
	StartDate                  string               `json:"start_date" validate:"required,datetime=2006-01-02"`
	AutoRenewal                bool                 `json:"auto_renewal"`
	EarlyWithdrawalAllowed     bool                 `json:"early_withdrawal_allowed"`
	EarlyWithdrawalPenaltyRate decimal.Decimal      `json:"early_withdrawal_penalty_rate" validate:"decimal_gte=0"`
	InsuranceCoverage          decimal.Decimal      `json:"insurance_coverage" validate:"decimal_gte=0"`
}

// ToProduct builds the product details; a TIME deposit gets its maturity from the term.
func (r *CreateProductRequest) ToProduct(now time.Time) (*DepositProductDetails, error) {
	start, err := time.Parse(utils.DateLayout, r.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %w", err)
	}
	product := &DepositProductDetails{
		ID:                         uuid.New(),
		Name:                       r.Name,
		Bank:                       r.Bank,
		Currency:                   r.Currency,
		DepositType:                r.DepositType,
		InterestRate:               r.InterestRate,
		RateType:                   r.RateType,
		CompoundingFrequency:       r.CompoundingFrequency,
		StartDate:                  utils.TruncateToDate(start),
		AutoRenewal:                r.AutoRenewal,
		EarlyWithdrawalAllowed:     r.EarlyWithdrawalAllowed,
		EarlyWithdrawalPenaltyRate: r.EarlyWithdrawalPenaltyRate,
		InsuranceCoverage:          r.InsuranceCoverage,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
	if r.DepositType == DepositTypeTime {
		if r.TermMonths == nil {
			return nil, fmt.Errorf("term_months is required for TIME deposits")
		}
		product.Renew(start, *r.TermMonths)
	}
	return product, nil
}

type OpenPositionRequest struct {
	PortfolioID uuid.UUID       `json:"portfolio_id" validate:"required"`
	ProductID   uuid.UUID       `json:"product_id" validate:"required"`
	Principal   decimal.Decimal `json:"principal" validate:"decimal_gt=0"`
}
