package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockInterestCalculator struct {
	mock.Mock
}

func (m *MockInterestCalculator) BatchCalculateInterest(ctx context.Context, userID string, asOf time.Time, cfg domain.CalculationConfig) (*domain.BatchCalculationResult, error) {
	args := m.Called(ctx, userID, asOf, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchCalculationResult), args.Error(1)
}

type MockCalculationRecorder struct {
	mock.Mock
}

func (m *MockCalculationRecorder) RecordInterestCalculation(ctx context.Context, result *domain.InterestCalculationResult) (uuid.UUID, error) {
	args := m.Called(ctx, result)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockAutoRenewer struct {
	mock.Mock
}

func (m *MockAutoRenewer) ProcessAutoMaturityDeposits(ctx context.Context) (*domain.JobSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JobSummary), args.Error(1)
}

type MockMaturityScanner struct {
	mock.Mock
}

func (m *MockMaturityScanner) ScanUpcomingMaturityDeposits(ctx context.Context, daysAhead int) ([]*domain.MaturityAlert, error) {
	args := m.Called(ctx, daysAhead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MaturityAlert), args.Error(1)
}

type MockNotificationSource struct {
	mock.Mock
}

func (m *MockNotificationSource) GetPendingNotifications(ctx context.Context) ([]*domain.MaturityAlert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MaturityAlert), args.Error(1)
}

func (m *MockNotificationSource) MarkNotificationSent(ctx context.Context, alertID uuid.UUID) error {
	args := m.Called(ctx, alertID)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyMaturity(ctx context.Context, alert *domain.MaturityAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

type MockLocker struct {
	mock.Mock
	released int
}

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	args := m.Called(ctx, key, ttl)
	unlock := func(context.Context) error {
		m.released++
		return nil
	}
	return unlock, args.Bool(0), args.Error(1)
}

type MockJob struct {
	mock.Mock
	name string
}

func (m *MockJob) Name() string {
	return m.name
}

func (m *MockJob) Run(ctx context.Context) (*domain.JobSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JobSummary), args.Error(1)
}
