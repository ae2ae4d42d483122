package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/repository"
	"github.com/segyhp/deposit-engine/internal/repository/memory"
	"github.com/segyhp/deposit-engine/internal/service"
	customError "github.com/segyhp/deposit-engine/pkg/errors"
	"github.com/segyhp/deposit-engine/pkg/interest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessMaturity_Renew(t *testing.T) {
	store := memory.NewStore()
	scanner := service.NewMaturityScanner(store, fixedClock())
	processor := service.NewMaturityProcessor(store, fixedClock())
	ctx := context.Background()

	product, position := seedDeposit(t, store, timeDeposit("user-1", "2023-06-01"))
	_, err := scanner.CreateAlert(ctx, "user-1", position.ID, domain.CreateAlertRequest{})
	require.NoError(t, err)

	result, err := processor.ProcessMaturity(ctx, position.ID, domain.ActionRenew, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AlertsReconciled)
	assert.True(t, result.WithdrawnAmount.IsZero())

	renewed := reloadProduct(t, store, product.ID)
	assert.Equal(t, date("2024-06-01"), renewed.StartDate)
	require.NotNil(t, renewed.MaturityDate)
	assert.Equal(t, date("2025-06-01"), *renewed.MaturityDate)
	assert.Equal(t, 12, *renewed.TermMonths)

	reloaded, err := store.Repos().Positions.GetByID(ctx, position.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Balance.Equal(position.Balance), "renewal leaves the balance alone")

	active, err := store.Repos().Alerts.HasActiveAlert(ctx, position.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestProcessMaturity_RenewWithNewTerm(t *testing.T) {
	store := memory.NewStore()
	processor := service.NewMaturityProcessor(store, fixedClock())

	product, position := seedDeposit(t, store, timeDeposit("user-1", "2023-06-01"))

	term := 6
	_, err := processor.ProcessMaturity(context.Background(), position.ID, domain.ActionRenew, &term)
	require.NoError(t, err)

	renewed := reloadProduct(t, store, product.ID)
	assert.Equal(t, date("2024-12-01"), *renewed.MaturityDate)
	assert.Equal(t, 6, *renewed.TermMonths)
}

func TestProcessMaturity_TransferToDemand(t *testing.T) {
	store := memory.NewStore()
	processor := service.NewMaturityProcessor(store, fixedClock())

	spec := timeDeposit("user-1", "2023-06-01")
	spec.autoRenewal = true
	product, position := seedDeposit(t, store, spec)

	result, err := processor.ProcessMaturity(context.Background(), position.ID, domain.ActionTransferToDemand, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Product)

	converted := reloadProduct(t, store, product.ID)
	assert.Equal(t, domain.DepositTypeDemand, converted.DepositType)
	assert.Nil(t, converted.MaturityDate)
	assert.Nil(t, converted.TermMonths)
	assert.Equal(t, interest.CompoundDaily, converted.CompoundingFrequency)
	assert.False(t, converted.AutoRenewal)
}

func TestProcessMaturity_Withdraw(t *testing.T) {
	store := memory.NewStore()
	processor := service.NewMaturityProcessor(store, fixedClock())
	recorder := service.NewInterestLedgerRecorder(store, fixedClock())
	ctx := context.Background()

	_, position := seedDeposit(t, store, timeDeposit("user-1", "2023-06-01"))
	_, err := recorder.PayInterest(ctx, position.ID, dec("500"), date("2024-06-01"), domain.InterestTypeMaturity)
	require.NoError(t, err)

	result, err := processor.ProcessMaturity(ctx, position.ID, domain.ActionWithdraw, nil)
	require.NoError(t, err)
	assert.True(t, result.WithdrawnAmount.Equal(dec("10500")))
	require.NotNil(t, result.TransactionID)

	_, err = store.Repos().Positions.GetByID(ctx, position.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	txs, err := recorder.ListTransactions(ctx, position.ID)
	require.NoError(t, err)

	var withdrawals []*domain.Transaction
	for _, tx := range txs {
		if tx.Kind == domain.TransactionKindWithdrawal {
			withdrawals = append(withdrawals, tx)
		}
	}
	require.Len(t, withdrawals, 1)
	assert.Equal(t, *result.TransactionID, withdrawals[0].ID)
	assert.True(t, withdrawals[0].Amount.Equal(dec("10500")))
}

func TestProcessMaturity_Errors(t *testing.T) {
	store := memory.NewStore()
	processor := service.NewMaturityProcessor(store, fixedClock())
	ctx := context.Background()

	_, demand := seedDeposit(t, store, demandDeposit("user-1", "2023-06-01"))

	noTerm := timeDeposit("user-1", "2023-06-01")
	noTermProduct, noTermPosition := seedDeposit(t, store, noTerm)
	noTermProduct.TermMonths = nil
	require.NoError(t, store.Repos().Products.Update(ctx, noTermProduct))

	zero := 0

	tests := []struct {
		name       string
		positionID uuid.UUID
		action     domain.MaturityAction
		term       *int
		target     error
	}{
		{"unknown action", demand.ID, "ROLLOVER", nil, customError.ErrInvalidAction},
		{"renew demand deposit", demand.ID, domain.ActionRenew, nil, customError.ErrInvalidArgument},
		{"transfer demand deposit", demand.ID, domain.ActionTransferToDemand, nil, customError.ErrInvalidArgument},
		{"renew without any term", noTermPosition.ID, domain.ActionRenew, nil, customError.ErrInvalidArgument},
		{"zero term", noTermPosition.ID, domain.ActionRenew, &zero, customError.ErrInvalidArgument},
		{"unknown position", uuid.New(), domain.ActionWithdraw, nil, customError.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := processor.ProcessMaturity(ctx, tt.positionID, tt.action, tt.term)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestProcessAutoMaturityDeposits(t *testing.T) {
	store := memory.NewStore()
	scanner := service.NewMaturityScanner(store, fixedClock())
	processor := service.NewMaturityProcessor(store, fixedClock())
	ctx := context.Background()

	auto := timeDeposit("user-1", "2023-06-01")
	auto.autoRenewal = true
	renewable, _ := seedDeposit(t, store, auto)

	broken := timeDeposit("user-2", "2023-06-01")
	broken.autoRenewal = true
	brokenProduct, brokenPosition := seedDeposit(t, store, broken)
	brokenProduct.TermMonths = nil
	require.NoError(t, store.Repos().Products.Update(ctx, brokenProduct))

	// maturing today but MANUAL, so the sweep leaves it alone
	manualProduct, _ := seedDeposit(t, store, timeDeposit("user-3", "2023-06-01"))

	alerts, err := scanner.ScanUpcomingMaturityDeposits(ctx, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 3)

	summary, err := processor.ProcessAutoMaturityDeposits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, brokenPosition.ID, summary.Failures[0].PositionID)

	assert.Equal(t, date("2025-06-01"), *reloadProduct(t, store, renewable.ID).MaturityDate)
	assert.Equal(t, date("2024-06-01"), *reloadProduct(t, store, manualProduct.ID).MaturityDate)

	downgraded, err := store.Repos().Alerts.GetActiveByPosition(ctx, brokenPosition.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RenewalManual, downgraded.RenewalOption)
	assert.Equal(t, domain.AlertStatusPending, downgraded.Status)

	t.Run("second sweep finds nothing", func(t *testing.T) {
		summary, err := processor.ProcessAutoMaturityDeposits(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Processed)
	})
}

func TestBatchUpdateMaturityOptions(t *testing.T) {
	store := memory.NewStore()
	scanner := service.NewMaturityScanner(store, fixedClock())
	processor := service.NewMaturityProcessor(store, fixedClock())
	ctx := context.Background()

	mineProduct, mine := seedDeposit(t, store, timeDeposit("user-1", "2023-06-20"))
	_, theirs := seedDeposit(t, store, timeDeposit("user-2", "2023-06-20"))

	alert, err := scanner.CreateAlert(ctx, "user-1", mine.ID, domain.CreateAlertRequest{})
	require.NoError(t, err)
	require.Equal(t, domain.RenewalManual, alert.RenewalOption)

	t.Run("foreign position rolls back the batch", func(t *testing.T) {
		_, err := processor.BatchUpdateMaturityOptions(ctx, "user-1", []domain.MaturityOptionUpdate{
			{PositionID: mine.ID, RenewalOption: domain.RenewalAuto},
			{PositionID: theirs.ID, RenewalOption: domain.RenewalAuto},
		})
		assert.ErrorIs(t, err, customError.ErrUnauthorized)

		assert.False(t, reloadProduct(t, store, mineProduct.ID).AutoRenewal)
		unchanged, err := store.Repos().Alerts.GetByID(ctx, alert.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RenewalManual, unchanged.RenewalOption)
	})

	t.Run("own positions", func(t *testing.T) {
		term := 3
		result, err := processor.BatchUpdateMaturityOptions(ctx, "user-1", []domain.MaturityOptionUpdate{
			{PositionID: mine.ID, RenewalOption: domain.RenewalAuto, NewTermMonths: &term},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Updated)

		assert.True(t, reloadProduct(t, store, mineProduct.ID).AutoRenewal)
		updated, err := store.Repos().Alerts.GetByID(ctx, alert.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RenewalAuto, updated.RenewalOption)
		assert.Equal(t, 3, *updated.NewTermMonths)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := processor.BatchUpdateMaturityOptions(ctx, "user-1", nil)
		assert.ErrorIs(t, err, customError.ErrInvalidArgument)

		_, err = processor.BatchUpdateMaturityOptions(ctx, "user-1", []domain.MaturityOptionUpdate{
			{PositionID: mine.ID, RenewalOption: "LATER"},
		})
		assert.ErrorIs(t, err, customError.ErrInvalidArgument)

		_, err = processor.BatchUpdateMaturityOptions(ctx, "user-1", []domain.MaturityOptionUpdate{
			{PositionID: uuid.New(), RenewalOption: domain.RenewalManual},
		})
		assert.ErrorIs(t, err, customError.ErrNotFound)
	})

	t.Run("demand position has no renewal options", func(t *testing.T) {
		demandProduct, demand := seedDeposit(t, store, demandDeposit("user-1", "2024-01-01"))

		_, err := processor.BatchUpdateMaturityOptions(ctx, "user-1", []domain.MaturityOptionUpdate{
			{PositionID: demand.ID, RenewalOption: domain.RenewalAuto},
		})
		assert.ErrorIs(t, err, customError.ErrInvalidArgument)
		assert.False(t, reloadProduct(t, store, demandProduct.ID).AutoRenewal)
	})
}
