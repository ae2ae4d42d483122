package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore returns a Store backed by PostgreSQL through sqlx.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Repos() Repositories {
	return newRepositories(s.db)
}

func (s *postgresStore) WithTransaction(ctx context.Context, fn func(repos Repositories) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
			}
		}
	}()

	if err = fn(newRepositories(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func newRepositories(db sqlx.ExtContext) Repositories {
	return Repositories{
		Positions:       &positionRepository{db: db},
		Products:        &productRepository{db: db},
		InterestRecords: &interestRecordRepository{db: db},
		Alerts:          &alertRepository{db: db},
		Ledger:          &ledgerRepository{db: db},
		AccrualRuns:     &accrualRunRepository{db: db},
	}
}

// notFound maps sql.ErrNoRows onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// expectAffected turns a zero-row UPDATE or DELETE into ErrNotFound.
func expectAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// prefixed renders "alias.col AS "prefix.col"" for each column so sqlx can fill
// a nested struct from a join.
func prefixed(alias, prefix, columns string) string {
	cols := strings.Split(columns, ",")
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		c = strings.TrimSpace(c)
		out = append(out, fmt.Sprintf(`%s.%s AS "%s.%s"`, alias, c, prefix, c))
	}
	return strings.Join(out, ", ")
}
