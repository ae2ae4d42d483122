package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/shopspring/decimal"
)

const positionColumns = `id, user_id, portfolio_id, product_id, principal, balance, created_at, updated_at`

type positionRepository struct {
	db sqlx.ExtContext
}

func (r *positionRepository) Create(ctx context.Context, position *domain.DepositPosition) error {
	query := `
		INSERT INTO deposit_positions (id, user_id, portfolio_id, product_id, principal, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		position.ID,
		position.UserID,
		position.PortfolioID,
		position.ProductID,
		position.Principal,
		position.Balance,
		position.CreatedAt,
		position.UpdatedAt,
	)

	return err
}

func (r *positionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DepositPosition, error) {
	query := `SELECT ` + positionColumns + ` FROM deposit_positions WHERE id = $1`

	var position domain.DepositPosition
	if err := sqlx.GetContext(ctx, r.db, &position, query, id); err != nil {
		return nil, notFound(err)
	}

	return &position, nil
}

func (r *positionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.DepositPosition, error) {
	query := `SELECT ` + positionColumns + ` FROM deposit_positions WHERE id = $1 FOR UPDATE`

	var position domain.DepositPosition
	if err := sqlx.GetContext(ctx, r.db, &position, query, id); err != nil {
		return nil, notFound(err)
	}

	return &position, nil
}

func (r *positionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.DepositPosition, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM deposit_positions
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	var positions []*domain.DepositPosition
	if err := sqlx.SelectContext(ctx, r.db, &positions, query, userID); err != nil {
		return nil, err
	}

	return positions, nil
}

func (r *positionRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM deposit_positions WHERE product_id = $1`

	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, query, productID); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *positionRepository) ListOwners(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT user_id FROM deposit_positions ORDER BY user_id`

	var owners []string
	if err := sqlx.SelectContext(ctx, r.db, &owners, query); err != nil {
		return nil, err
	}

	return owners, nil
}

type maturingRow struct {
	Position domain.DepositPosition       `db:"position"`
	Product  domain.DepositProductDetails `db:"product"`
}

func (r *positionRepository) ListMaturingBetween(ctx context.Context, from, to time.Time) ([]PositionWithProduct, error) {
	query := `
		SELECT ` + prefixed("p", "position", positionColumns) + `, ` + prefixed("d", "product", productColumns) + `
		FROM deposit_positions p
		JOIN deposit_products d ON d.id = p.product_id
		WHERE d.deposit_type = 'TIME'
		  AND d.maturity_date BETWEEN $1 AND $2
		  AND NOT EXISTS (
			SELECT 1 FROM maturity_alerts a
			WHERE a.position_id = p.id AND a.status IN ('PENDING', 'NOTIFIED')
		  )
		ORDER BY d.maturity_date, p.id
	`

	var rows []maturingRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, from, to); err != nil {
		return nil, err
	}

	result := make([]PositionWithProduct, 0, len(rows))
	for i := range rows {
		result = append(result, PositionWithProduct{
			Position: &rows[i].Position,
			Product:  &rows[i].Product,
		})
	}

	return result, nil
}

func (r *positionRepository) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	query := `
		UPDATE deposit_positions
		SET balance = $2, updated_at = $3
		WHERE id = $1
	`

	return expectAffected(r.db.ExecContext(ctx, query, id, balance, time.Now().UTC()))
}

func (r *positionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM deposit_positions WHERE id = $1`

	return expectAffected(r.db.ExecContext(ctx, query, id))
}
