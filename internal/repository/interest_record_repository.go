package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/shopspring/decimal"
)

const interestRecordColumns = `id, position_id, calculation_date, principal_amount, interest_rate, calculation_method,
	day_count, simple_interest, compound_interest, accrued_interest, interest_amount, total_amount,
	effective_rate, interest_type, status, payment_date, created_at`

type interestRecordRepository struct {
	db sqlx.ExtContext
}

func (r *interestRecordRepository) Create(ctx context.Context, record *domain.InterestRecord) error {
	query := `
		INSERT INTO interest_records (` + interestRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.PositionID,
		record.CalculationDate,
		record.PrincipalAmount,
		record.InterestRate,
		record.CalculationMethod,
		record.DayCount,
		record.SimpleInterest,
		record.CompoundInterest,
		record.AccruedInterest,
		record.InterestAmount,
		record.TotalAmount,
		record.EffectiveRate,
		record.InterestType,
		record.Status,
		record.PaymentDate,
		record.CreatedAt,
	)

	return err
}

func (r *interestRecordRepository) SumInterestUpTo(ctx context.Context, positionID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(interest_amount), 0)
		FROM interest_records
		WHERE position_id = $1
		  AND status IN ('CALCULATED', 'PAID')
		  AND calculation_date <= $2
	`

	var total decimal.Decimal
	if err := sqlx.GetContext(ctx, r.db, &total, query, positionID, asOf); err != nil {
		return decimal.Zero, err
	}

	return total, nil
}

func (r *interestRecordRepository) ListPaid(ctx context.Context, positionID uuid.UUID, from, to time.Time) ([]*domain.InterestRecord, error) {
	query := `
		SELECT ` + interestRecordColumns + `
		FROM interest_records
		WHERE position_id = $1
		  AND status = 'PAID'
		  AND payment_date BETWEEN $2 AND $3
		ORDER BY payment_date DESC, created_at DESC
	`

	var records []*domain.InterestRecord
	if err := sqlx.SelectContext(ctx, r.db, &records, query, positionID, from, to); err != nil {
		return nil, err
	}

	return records, nil
}
