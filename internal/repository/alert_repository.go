package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/segyhp/deposit-engine/internal/domain"
)

const alertColumns = `id, position_id, user_id, maturity_date, principal_amount, estimated_interest,
	alert_days_before, alert_date, renewal_option, new_term_months, status, notified_at,
	processed_at, created_at, updated_at`

type alertRepository struct {
	db sqlx.ExtContext
}

func (r *alertRepository) Create(ctx context.Context, alert *domain.MaturityAlert) error {
	query := `
		INSERT INTO maturity_alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.PositionID,
		alert.UserID,
		alert.MaturityDate,
		alert.PrincipalAmount,
		alert.EstimatedInterest,
		alert.AlertDaysBefore,
		alert.AlertDate,
		alert.RenewalOption,
		alert.NewTermMonths,
		alert.Status,
		alert.NotifiedAt,
		alert.ProcessedAt,
		alert.CreatedAt,
		alert.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrActiveAlertExists
	}

	return err
}

func (r *alertRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MaturityAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM maturity_alerts WHERE id = $1`

	var alert domain.MaturityAlert
	if err := sqlx.GetContext(ctx, r.db, &alert, query, id); err != nil {
		return nil, notFound(err)
	}

	return &alert, nil
}

func (r *alertRepository) GetActiveByPosition(ctx context.Context, positionID uuid.UUID) (*domain.MaturityAlert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM maturity_alerts
		WHERE position_id = $1 AND status IN ('PENDING', 'NOTIFIED')
	`

	var alert domain.MaturityAlert
	if err := sqlx.GetContext(ctx, r.db, &alert, query, positionID); err != nil {
		return nil, notFound(err)
	}

	return &alert, nil
}

func (r *alertRepository) HasActiveAlert(ctx context.Context, positionID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM maturity_alerts
			WHERE position_id = $1 AND status IN ('PENDING', 'NOTIFIED')
		)
	`

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, positionID); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *alertRepository) ListPendingDue(ctx context.Context, asOf time.Time) ([]*domain.MaturityAlert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM maturity_alerts
		WHERE status = 'PENDING' AND alert_date <= $1
		ORDER BY alert_date, maturity_date, id
	`

	return r.list(ctx, query, asOf)
}

func (r *alertRepository) ListAutoRenewalsDue(ctx context.Context, maturityDate time.Time) ([]*domain.MaturityAlert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM maturity_alerts
		WHERE renewal_option = 'AUTO'
		  AND status IN ('PENDING', 'NOTIFIED')
		  AND maturity_date = $1
		ORDER BY id
	`

	return r.list(ctx, query, maturityDate)
}

func (r *alertRepository) ListByUser(ctx context.Context, userID string, status *domain.AlertStatus) ([]*domain.MaturityAlert, error) {
	if status == nil {
		query := `
			SELECT ` + alertColumns + `
			FROM maturity_alerts
			WHERE user_id = $1
			ORDER BY maturity_date, created_at
		`
		return r.list(ctx, query, userID)
	}

	query := `
		SELECT ` + alertColumns + `
		FROM maturity_alerts
		WHERE user_id = $1 AND status = $2
		ORDER BY maturity_date, created_at
	`
	return r.list(ctx, query, userID, *status)
}

func (r *alertRepository) Update(ctx context.Context, alert *domain.MaturityAlert) error {
	query := `
		UPDATE maturity_alerts
		SET renewal_option = $2, new_term_months = $3, status = $4,
			notified_at = $5, processed_at = $6, updated_at = $7
		WHERE id = $1
	`

	err := expectAffected(r.db.ExecContext(ctx, query,
		alert.ID,
		alert.RenewalOption,
		alert.NewTermMonths,
		alert.Status,
		alert.NotifiedAt,
		alert.ProcessedAt,
		alert.UpdatedAt,
	))
	if isUniqueViolation(err) {
		return ErrActiveAlertExists
	}

	return err
}

func (r *alertRepository) MarkProcessed(ctx context.Context, positionID uuid.UUID, from []domain.AlertStatus, at time.Time) (int, error) {
	if len(from) == 0 {
		return 0, nil
	}

	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}

	query := `
		UPDATE maturity_alerts
		SET status = 'PROCESSED', processed_at = $3, updated_at = $3
		WHERE position_id = $1 AND status = ANY($2)
	`

	res, err := r.db.ExecContext(ctx, query, positionID, pq.Array(statuses), at)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(n), nil
}

func (r *alertRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.MaturityAlert, error) {
	var alerts []*domain.MaturityAlert
	if err := sqlx.SelectContext(ctx, r.db, &alerts, query, args...); err != nil {
		return nil, err
	}
	return alerts, nil
}
