// Package jobs holds the scheduled drivers of the deposit engine and the
// plumbing that keeps two scheduler replicas from running the same job at once.
package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
)

const (
	DailyAccrualJobName         = "daily-accrual"
	AutoMaturitySweepJobName    = "auto-maturity"
	MaturityScanJobName         = "maturity-scan"
	NotificationDispatchJobName = "notification-dispatch"
)

// Job is one scheduled unit of work.
type Job interface {
	Name() string
	Run(ctx context.Context) (*domain.JobSummary, error)
}

// InterestCalculator is the part of the accrual calculator the daily job needs.
type InterestCalculator interface {
	BatchCalculateInterest(ctx context.Context, userID string, asOf time.Time, cfg domain.CalculationConfig) (*domain.BatchCalculationResult, error)
}

// CalculationRecorder persists calculated interest.
type CalculationRecorder interface {
	RecordInterestCalculation(ctx context.Context, result *domain.InterestCalculationResult) (uuid.UUID, error)
}

// AutoRenewer runs the auto-maturity sweep.
type AutoRenewer interface {
	ProcessAutoMaturityDeposits(ctx context.Context) (*domain.JobSummary, error)
}

// MaturityScanner raises alerts for upcoming maturities.
type MaturityScanner interface {
	ScanUpcomingMaturityDeposits(ctx context.Context, daysAhead int) ([]*domain.MaturityAlert, error)
}

// NotificationSource hands out due alerts and records their delivery.
type NotificationSource interface {
	GetPendingNotifications(ctx context.Context) ([]*domain.MaturityAlert, error)
	MarkNotificationSent(ctx context.Context, alertID uuid.UUID) error
}

// Notifier delivers a maturity alert to its owner.
type Notifier interface {
	NotifyMaturity(ctx context.Context, alert *domain.MaturityAlert) error
}

// Locker grants exclusive, expiring leases on a key.
type Locker interface {
	// TryLock returns ok=false without error when someone else holds key.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, ok bool, err error)
}
