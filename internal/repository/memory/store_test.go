package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/repository"
	"github.com/segyhp/deposit-engine/pkg/interest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedTimeDeposit(t *testing.T, store *Store, userID string, maturity time.Time) (*domain.DepositPosition, *domain.DepositProductDetails) {
	t.Helper()
	ctx := context.Background()

	term := 12
	product := &domain.DepositProductDetails{
		ID:                   uuid.New(),
		Name:                 "12M TD",
		Bank:                 "Bank",
		Currency:             "USD",
		DepositType:          domain.DepositTypeTime,
		InterestRate:         decimal.RequireFromString("0.05"),
		RateType:             domain.RateTypeFixed,
		CompoundingFrequency: interest.CompoundMonthly,
		TermMonths:           &term,
		StartDate:            maturity.AddDate(-1, 0, 0),
		MaturityDate:         &maturity,
	}
	position := &domain.DepositPosition{
		ID:          uuid.New(),
		UserID:      userID,
		PortfolioID: uuid.New(),
		ProductID:   product.ID,
		Principal:   decimal.NewFromInt(10000),
		Balance:     decimal.NewFromInt(10000),
		CreatedAt:   time.Now(),
	}

	repos := store.Repos()
	require.NoError(t, repos.Products.Create(ctx, product))
	require.NoError(t, repos.Positions.Create(ctx, position))
	return position, product
}

func newAlert(positionID uuid.UUID, status domain.AlertStatus) *domain.MaturityAlert {
	return &domain.MaturityAlert{
		ID:            uuid.New(),
		PositionID:    positionID,
		UserID:        "user-1",
		MaturityDate:  date(2024, 7, 1),
		AlertDate:     date(2024, 6, 24),
		RenewalOption: domain.RenewalManual,
		Status:        status,
	}
}

func TestStore_WithTransaction_CommitsOnSuccess(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	position, _ := seedTimeDeposit(t, store, "user-1", date(2024, 7, 1))

	err := store.WithTransaction(ctx, func(repos repository.Repositories) error {
		return repos.Positions.SetBalance(ctx, position.ID, decimal.NewFromInt(10500))
	})
	require.NoError(t, err)

	got, err := store.Repos().Positions.GetByID(ctx, position.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(10500)))
}

func TestStore_WithTransaction_RollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	position, _ := seedTimeDeposit(t, store, "user-1", date(2024, 7, 1))
	boom := errors.New("boom")

	err := store.WithTransaction(ctx, func(repos repository.Repositories) error {
		require.NoError(t, repos.Positions.SetBalance(ctx, position.ID, decimal.NewFromInt(1)))
		require.NoError(t, repos.Ledger.Append(ctx, &domain.Transaction{ID: uuid.New(), PositionID: position.ID}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Repos().Positions.GetByID(ctx, position.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(10000)))

	txs, err := store.Repos().Ledger.ListByPosition(ctx, position.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestStore_ReturnedValuesAreCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	position, _ := seedTimeDeposit(t, store, "user-1", date(2024, 7, 1))

	got, err := store.Repos().Positions.GetByID(ctx, position.ID)
	require.NoError(t, err)
	got.Balance = decimal.Zero

	again, err := store.Repos().Positions.GetByID(ctx, position.ID)
	require.NoError(t, err)
	assert.True(t, again.Balance.Equal(decimal.NewFromInt(10000)))
}

func TestAlertRepository_OneActiveAlertPerPosition(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	alerts := store.Repos().Alerts
	positionID := uuid.New()

	require.NoError(t, alerts.Create(ctx, newAlert(positionID, domain.AlertStatusPending)))
	assert.ErrorIs(t, alerts.Create(ctx, newAlert(positionID, domain.AlertStatusNotified)), repository.ErrActiveAlertExists)

	// inactive alerts never conflict
	require.NoError(t, alerts.Create(ctx, newAlert(positionID, domain.AlertStatusProcessed)))

	n, err := alerts.MarkProcessed(ctx, positionID, domain.ActiveAlertStatuses, date(2024, 7, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	has, err := alerts.HasActiveAlert(ctx, positionID)
	require.NoError(t, err)
	assert.False(t, has)
	require.NoError(t, alerts.Create(ctx, newAlert(positionID, domain.AlertStatusPending)))
}

func TestAlertRepository_ListPendingDue(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	alerts := store.Repos().Alerts

	due := newAlert(uuid.New(), domain.AlertStatusPending)
	future := newAlert(uuid.New(), domain.AlertStatusPending)
	future.AlertDate = date(2024, 6, 30)
	notified := newAlert(uuid.New(), domain.AlertStatusNotified)

	for _, a := range []*domain.MaturityAlert{due, future, notified} {
		require.NoError(t, alerts.Create(ctx, a))
	}

	got, err := alerts.ListPendingDue(ctx, date(2024, 6, 25))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due.ID, got[0].ID)
}

func TestPositionRepository_ListMaturingBetween(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	inWindow, _ := seedTimeDeposit(t, store, "user-1", date(2024, 6, 10))
	alerted, _ := seedTimeDeposit(t, store, "user-1", date(2024, 6, 12))
	seedTimeDeposit(t, store, "user-2", date(2024, 9, 1))

	require.NoError(t, store.Repos().Alerts.Create(ctx, newAlert(alerted.ID, domain.AlertStatusPending)))

	got, err := store.Repos().Positions.ListMaturingBetween(ctx, date(2024, 6, 1), date(2024, 7, 1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inWindow.ID, got[0].Position.ID)
	assert.Equal(t, domain.DepositTypeTime, got[0].Product.DepositType)
}

func TestPositionRepository_ListOwners(t *testing.T) {
	store := NewStore()
	seedTimeDeposit(t, store, "bob", date(2024, 6, 10))
	seedTimeDeposit(t, store, "alice", date(2024, 6, 10))
	seedTimeDeposit(t, store, "bob", date(2024, 6, 10))

	owners, err := store.Repos().Positions.ListOwners(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, owners)
}

func TestPositionRepository_CountByProduct(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_, product := seedTimeDeposit(t, store, "alice", date(2024, 6, 10))

	count, err := store.Repos().Positions.CountByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.Repos().Positions.CountByProduct(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, count)

	locked, err := store.Repos().Products.GetForUpdate(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, locked.ID)
}

func TestAccrualRunRepository_OneRunPerDate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	runs := store.Repos().AccrualRuns

	_, err := runs.GetLatest(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, runs.Create(ctx, &domain.AccrualRun{ID: uuid.New(), RunDate: date(2024, 6, 1)}))
	require.NoError(t, runs.Create(ctx, &domain.AccrualRun{ID: uuid.New(), RunDate: date(2024, 6, 2)}))
	assert.ErrorIs(t, runs.Create(ctx, &domain.AccrualRun{ID: uuid.New(), RunDate: date(2024, 6, 2)}), repository.ErrAccrualRunExists)

	latest, err := runs.GetLatest(ctx)
	require.NoError(t, err)
	assert.True(t, latest.RunDate.Equal(date(2024, 6, 2)))
}
