package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/segyhp/deposit-engine/internal/domain"
)

const transactionColumns = `id, position_id, portfolio_id, user_id, kind, amount, currency,
	transaction_date, description, created_at`

type ledgerRepository struct {
	db sqlx.ExtContext
}

func (r *ledgerRepository) Append(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		tx.ID,
		tx.PositionID,
		tx.PortfolioID,
		tx.UserID,
		tx.Kind,
		tx.Amount,
		tx.Currency,
		tx.TransactionDate,
		tx.Description,
		tx.CreatedAt,
	)

	return err
}

func (r *ledgerRepository) ListByPosition(ctx context.Context, positionID uuid.UUID) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE position_id = $1
		ORDER BY transaction_date DESC, created_at DESC
	`

	var txs []*domain.Transaction
	if err := sqlx.SelectContext(ctx, r.db, &txs, query, positionID); err != nil {
		return nil, err
	}

	return txs, nil
}
