// Package mocks provides testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var (
	_ repository.LedgerRepository         = (*MockLedgerRepository)(nil)
	_ repository.InterestRecordRepository = (*MockInterestRecordRepository)(nil)
	_ repository.AccrualRunRepository     = (*MockAccrualRunRepository)(nil)
)

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListByPosition(ctx context.Context, positionID uuid.UUID) ([]*domain.Transaction, error) {
	args := m.Called(ctx, positionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

type MockInterestRecordRepository struct {
	mock.Mock
}

func (m *MockInterestRecordRepository) Create(ctx context.Context, record *domain.InterestRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockInterestRecordRepository) SumInterestUpTo(ctx context.Context, positionID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, positionID, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInterestRecordRepository) ListPaid(ctx context.Context, positionID uuid.UUID, from, to time.Time) ([]*domain.InterestRecord, error) {
	args := m.Called(ctx, positionID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.InterestRecord), args.Error(1)
}

type MockAccrualRunRepository struct {
	mock.Mock
}

func (m *MockAccrualRunRepository) GetByDate(ctx context.Context, date time.Time) (*domain.AccrualRun, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccrualRun), args.Error(1)
}

func (m *MockAccrualRunRepository) Create(ctx context.Context, run *domain.AccrualRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockAccrualRunRepository) GetLatest(ctx context.Context) (*domain.AccrualRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccrualRun), args.Error(1)
}

// Store wraps a real store and lets a test swap single repositories, inside
// and outside of transactions.
type Store struct {
	repository.Store
	Override func(repos *repository.Repositories)
}

func (s *Store) Repos() repository.Repositories {
	repos := s.Store.Repos()
	if s.Override != nil {
		s.Override(&repos)
	}
	return repos
}

func (s *Store) WithTransaction(ctx context.Context, fn func(repos repository.Repositories) error) error {
	return s.Store.WithTransaction(ctx, func(repos repository.Repositories) error {
		if s.Override != nil {
			s.Override(&repos)
		}
		return fn(repos)
	})
}
