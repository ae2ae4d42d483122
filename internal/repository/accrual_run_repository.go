package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/segyhp/deposit-engine/internal/domain"
)

const accrualRunColumns = `id, run_date, positions_processed, succeeded, failed, total_accrued, summary, created_at`

type accrualRunRepository struct {
	db sqlx.ExtContext
}

func (r *accrualRunRepository) GetByDate(ctx context.Context, date time.Time) (*domain.AccrualRun, error) {
	query := `SELECT ` + accrualRunColumns + ` FROM accrual_runs WHERE run_date = $1`

	var run domain.AccrualRun
	if err := sqlx.GetContext(ctx, r.db, &run, query, date); err != nil {
		return nil, notFound(err)
	}

	return &run, nil
}

func (r *accrualRunRepository) Create(ctx context.Context, run *domain.AccrualRun) error {
	query := `
		INSERT INTO accrual_runs (` + accrualRunColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	summary := "{}"
	if len(run.Summary) > 0 {
		summary = string(run.Summary)
	}

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.RunDate,
		run.PositionsProcessed,
		run.Succeeded,
		run.Failed,
		run.TotalAccrued,
		summary,
		run.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAccrualRunExists
	}

	return err
}

func (r *accrualRunRepository) GetLatest(ctx context.Context) (*domain.AccrualRun, error) {
	query := `SELECT ` + accrualRunColumns + ` FROM accrual_runs ORDER BY run_date DESC LIMIT 1`

	var run domain.AccrualRun
	if err := sqlx.GetContext(ctx, r.db, &run, query); err != nil {
		return nil, notFound(err)
	}

	return &run, nil
}
