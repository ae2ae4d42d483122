// Package memory keeps every repository in process memory. It backs the
// "memory" database driver and the service and handler tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/repository"
)

type state struct {
	positions map[uuid.UUID]domain.DepositPosition
	products  map[uuid.UUID]domain.DepositProductDetails
	records   []domain.InterestRecord
	alerts    map[uuid.UUID]domain.MaturityAlert
	ledger    []domain.Transaction
	runs      []domain.AccrualRun
}

func newState() *state {
	return &state{
		positions: make(map[uuid.UUID]domain.DepositPosition),
		products:  make(map[uuid.UUID]domain.DepositProductDetails),
		alerts:    make(map[uuid.UUID]domain.MaturityAlert),
	}
}

func (s *state) clone() *state {
	c := &state{
		positions: make(map[uuid.UUID]domain.DepositPosition, len(s.positions)),
		products:  make(map[uuid.UUID]domain.DepositProductDetails, len(s.products)),
		records:   append([]domain.InterestRecord(nil), s.records...),
		alerts:    make(map[uuid.UUID]domain.MaturityAlert, len(s.alerts)),
		ledger:    append([]domain.Transaction(nil), s.ledger...),
		runs:      append([]domain.AccrualRun(nil), s.runs...),
	}
	for k, v := range s.positions {
		c.positions[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.alerts {
		c.alerts[k] = v
	}
	return c
}

// Store is a repository.Store held in memory. Transactions work on a copy of
// the data that replaces the live copy only when the callback succeeds, and
// they are serialized against every other access.
type Store struct {
	mu sync.Mutex
	st *state
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) Repos() repository.Repositories {
	return newRepositories(view{store: s})
}

func (s *Store) WithTransaction(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.st.clone()
	if err := fn(newRepositories(view{store: s, tx: tx})); err != nil {
		return err
	}
	s.st = tx

	return nil
}

// view resolves the state a repository call works on: the transaction copy,
// or the live state under the store lock.
type view struct {
	store *Store
	tx    *state
}

func (v view) acquire() (*state, func()) {
	if v.tx != nil {
		return v.tx, func() {}
	}
	v.store.mu.Lock()
	return v.store.st, v.store.mu.Unlock
}

func newRepositories(v view) repository.Repositories {
	return repository.Repositories{
		Positions:       &positionRepository{v},
		Products:        &productRepository{v},
		InterestRecords: &interestRecordRepository{v},
		Alerts:          &alertRepository{v},
		Ledger:          &ledgerRepository{v},
		AccrualRuns:     &accrualRunRepository{v},
	}
}
