package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/segyhp/deposit-engine/internal/domain"
)

const productColumns = `id, name, bank, currency, deposit_type, interest_rate, rate_type, compounding_frequency,
	term_months, start_date, maturity_date, auto_renewal, early_withdrawal_allowed,
	early_withdrawal_penalty_rate, insurance_coverage, created_at, updated_at`

type productRepository struct {
	db sqlx.ExtContext
}

func (r *productRepository) Create(ctx context.Context, product *domain.DepositProductDetails) error {
	query := `
		INSERT INTO deposit_products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Bank,
		product.Currency,
		product.DepositType,
		product.InterestRate,
		product.RateType,
		product.CompoundingFrequency,
		product.TermMonths,
		product.StartDate,
		product.MaturityDate,
		product.AutoRenewal,
		product.EarlyWithdrawalAllowed,
		product.EarlyWithdrawalPenaltyRate,
		product.InsuranceCoverage,
		product.CreatedAt,
		product.UpdatedAt,
	)

	return err
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DepositProductDetails, error) {
	query := `SELECT ` + productColumns + ` FROM deposit_products WHERE id = $1`

	var product domain.DepositProductDetails
	if err := sqlx.GetContext(ctx, r.db, &product, query, id); err != nil {
		return nil, notFound(err)
	}

	return &product, nil
}

func (r *productRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.DepositProductDetails, error) {
	query := `SELECT ` + productColumns + ` FROM deposit_products WHERE id = $1 FOR UPDATE`

	var product domain.DepositProductDetails
	if err := sqlx.GetContext(ctx, r.db, &product, query, id); err != nil {
		return nil, notFound(err)
	}

	return &product, nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.DepositProductDetails) error {
	query := `
		UPDATE deposit_products
		SET deposit_type = $2, interest_rate = $3, rate_type = $4, compounding_frequency = $5,
			term_months = $6, start_date = $7, maturity_date = $8, auto_renewal = $9, updated_at = $10
		WHERE id = $1
	`

	product.UpdatedAt = time.Now().UTC()

	return expectAffected(r.db.ExecContext(ctx, query,
		product.ID,
		product.DepositType,
		product.InterestRate,
		product.RateType,
		product.CompoundingFrequency,
		product.TermMonths,
		product.StartDate,
		product.MaturityDate,
		product.AutoRenewal,
		product.UpdatedAt,
	))
}
