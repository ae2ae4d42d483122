package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrActiveAlertExists is returned when a position already has a PENDING or
	// NOTIFIED alert.
	ErrActiveAlertExists = errors.New("position already has an active maturity alert")

	// ErrAccrualRunExists is returned when a run is already stored for the date.
	ErrAccrualRunExists = errors.New("accrual run already exists for date")
)

// PositionWithProduct pairs a position with its deposit product details.
type PositionWithProduct struct {
	Position *domain.DepositPosition
	Product  *domain.DepositProductDetails
}

// PositionRepository defines the interface for deposit position data operations
type PositionRepository interface {
	// Create creates a new position
	Create(ctx context.Context, position *domain.DepositPosition) error

	// GetByID retrieves a position by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DepositPosition, error)

	// GetForUpdate retrieves a position and locks it until the surrounding
	// transaction ends
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.DepositPosition, error)

	// ListByUser returns every position owned by the user, oldest first
	ListByUser(ctx context.Context, userID string) ([]*domain.DepositPosition, error)

	// CountByProduct returns how many positions reference the product
	CountByProduct(ctx context.Context, productID uuid.UUID) (int, error)

	// ListOwners returns the distinct users that own at least one position
	ListOwners(ctx context.Context) ([]string, error)

	// ListMaturingBetween returns TIME deposits maturing in [from, to] that have
	// no PENDING or NOTIFIED alert
	ListMaturingBetween(ctx context.Context, from, to time.Time) ([]PositionWithProduct, error)

	// SetBalance overwrites the balance of a position
	SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error

	// Delete removes a position
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductCatalogRepository defines the interface for deposit product details
type ProductCatalogRepository interface {
	// Create creates new product details
	Create(ctx context.Context, product *domain.DepositProductDetails) error

	// GetByID retrieves product details by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DepositProductDetails, error)

	// GetForUpdate retrieves product details and locks the row until the
	// surrounding transaction ends
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.DepositProductDetails, error)

	// Update persists the mutable fields of the product details
	Update(ctx context.Context, product *domain.DepositProductDetails) error
}

// InterestRecordRepository defines the interface for interest record operations
type InterestRecordRepository interface {
	// Create inserts a record
	Create(ctx context.Context, record *domain.InterestRecord) error

	// SumInterestUpTo totals CALCULATED and PAID interest recorded on or before asOf
	SumInterestUpTo(ctx context.Context, positionID uuid.UUID, asOf time.Time) (decimal.Decimal, error)

	// ListPaid returns PAID records with a payment date in [from, to], newest first
	ListPaid(ctx context.Context, positionID uuid.UUID, from, to time.Time) ([]*domain.InterestRecord, error)
}

// AlertRepository defines the interface for maturity alert operations
type AlertRepository interface {
	// Create inserts an alert. It fails with ErrActiveAlertExists when the
	// position already has an active alert and the new one is active too.
	Create(ctx context.Context, alert *domain.MaturityAlert) error

	// GetByID retrieves an alert by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.MaturityAlert, error)

	// GetActiveByPosition returns the PENDING or NOTIFIED alert of a position
	GetActiveByPosition(ctx context.Context, positionID uuid.UUID) (*domain.MaturityAlert, error)

	// HasActiveAlert reports whether the position has a PENDING or NOTIFIED alert
	HasActiveAlert(ctx context.Context, positionID uuid.UUID) (bool, error)

	// ListPendingDue returns PENDING alerts whose alert date is on or before asOf
	ListPendingDue(ctx context.Context, asOf time.Time) ([]*domain.MaturityAlert, error)

	// ListAutoRenewalsDue returns active AUTO alerts maturing on the given date
	ListAutoRenewalsDue(ctx context.Context, maturityDate time.Time) ([]*domain.MaturityAlert, error)

	// ListByUser returns the user's alerts, optionally filtered by status
	ListByUser(ctx context.Context, userID string, status *domain.AlertStatus) ([]*domain.MaturityAlert, error)

	// Update persists status, renewal choice and timestamps of an alert
	Update(ctx context.Context, alert *domain.MaturityAlert) error

	// MarkProcessed moves the position's alerts in one of the given statuses to PROCESSED
	MarkProcessed(ctx context.Context, positionID uuid.UUID, from []domain.AlertStatus, at time.Time) (int, error)
}

// LedgerRepository is the cash-ledger sink
type LedgerRepository interface {
	// Append writes a transaction
	Append(ctx context.Context, tx *domain.Transaction) error

	// ListByPosition returns the transactions of a position, newest first
	ListByPosition(ctx context.Context, positionID uuid.UUID) ([]*domain.Transaction, error)
}

// AccrualRunRepository stores one record per daily accrual date
type AccrualRunRepository interface {
	// GetByDate returns the run for a date or ErrNotFound
	GetByDate(ctx context.Context, date time.Time) (*domain.AccrualRun, error)

	// Create inserts a run. It fails with ErrAccrualRunExists for a date that
	// already has one.
	Create(ctx context.Context, run *domain.AccrualRun) error

	// GetLatest returns the most recent run or ErrNotFound
	GetLatest(ctx context.Context) (*domain.AccrualRun, error)
}

// Repositories bundles the repositories bound to one connection or transaction.
type Repositories struct {
	Positions       PositionRepository
	Products        ProductCatalogRepository
	InterestRecords InterestRecordRepository
	Alerts          AlertRepository
	Ledger          LedgerRepository
	AccrualRuns     AccrualRunRepository
}

// Store hands out repositories and runs atomic units of work.
type Store interface {
	// Repos returns repositories outside of any transaction
	Repos() Repositories

	// WithTransaction runs fn against repositories bound to one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithTransaction(ctx context.Context, fn func(repos Repositories) error) error
}
