package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind is the type of cash movement written to the ledger.
type TransactionKind string

const (
	TransactionKindInterest   TransactionKind = "INTEREST"
	TransactionKindWithdrawal TransactionKind = "WITHDRAWAL"
)

// Transaction is a cash-ledger line.
type Transaction struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	PositionID      uuid.UUID       `json:"position_id" db:"position_id"`
	PortfolioID     uuid.UUID       `json:"portfolio_id" db:"portfolio_id"`
	UserID          string          `json:"user_id" db:"user_id"`
	Kind            TransactionKind `json:"kind" db:"kind"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Currency        string          `json:"currency" db:"currency"`
	TransactionDate time.Time       `json:"transaction_date" db:"transaction_date"`
	Description     string          `json:"description" db:"description"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// AccrualRun is the record of one daily accrual job execution. There is at most
// one run per calendar date.
type AccrualRun struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	RunDate            time.Time       `json:"run_date" db:"run_date"`
	PositionsProcessed int             `json:"positions_processed" db:"positions_processed"`
	Succeeded          int             `json:"succeeded" db:"succeeded"`
	Failed             int             `json:"failed" db:"failed"`
	TotalAccrued       decimal.Decimal `json:"total_accrued" db:"total_accrued"`
	Summary            json.RawMessage `json:"summary" db:"summary"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

// JobSummary is the aggregate outcome a scheduled job reports.
type JobSummary struct {
	Job       string            `json:"job"`
	RunDate   time.Time         `json:"run_date"`
	Processed int               `json:"processed"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Skipped   bool              `json:"skipped,omitempty"`
	Failures  []PositionFailure `json:"failures,omitempty"`
}
