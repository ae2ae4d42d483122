package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/repository/memory"
	"github.com/segyhp/deposit-engine/internal/service"
	customError "github.com/segyhp/deposit-engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertDaysBefore(t *testing.T) {
	tests := []struct {
		daysToMaturity int
		expected       int
	}{
		{0, 1},
		{1, 1},
		{2, 1},
		{5, 4},
		{7, 6},
		{8, 7},
		{30, 7},
		{31, 14},
		{90, 14},
		{91, 30},
		{365, 30},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, service.AlertDaysBefore(tt.daysToMaturity), "days to maturity %d", tt.daysToMaturity)
	}
}

func TestEstimateMaturityInterest(t *testing.T) {
	// 10000 * 0.05 / 365 * 30 = 41.0958...
	assert.True(t, service.EstimateMaturityInterest(dec("10000"), dec("0.05"), 30).Equal(dec("41.10")))
	assert.True(t, service.EstimateMaturityInterest(dec("10000"), dec("0.05"), 0).IsZero())
}

func TestScanUpcomingMaturityDeposits(t *testing.T) {
	store := memory.NewStore()
	scanner := service.NewMaturityScanner(store, fixedClock())
	ctx := context.Background()

	// matures 2024-06-20, 19 days out
	_, soon := seedDeposit(t, store, timeDeposit("user-1", "2023-06-20"))

	auto := timeDeposit("user-2", "2023-07-01")
	auto.autoRenewal = true
	// matures 2024-07-01, exactly 30 days out
	_, edge := seedDeposit(t, store, auto)

	// matures 2024-09-01, outside the window
	seedDeposit(t, store, timeDeposit("user-1", "2023-09-01"))
	// demand deposits never mature
	seedDeposit(t, store, demandDeposit("user-1", "2023-06-20"))

	alerts, err := scanner.ScanUpcomingMaturityDeposits(ctx, 30)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	byPosition := map[uuid.UUID]*domain.MaturityAlert{}
	for _, a := range alerts {
		byPosition[a.PositionID] = a
	}

	first := byPosition[soon.ID]
	require.NotNil(t, first)
	assert.Equal(t, domain.AlertStatusPending, first.Status)
	assert.Equal(t, domain.RenewalManual, first.RenewalOption)
	assert.Equal(t, 7, first.AlertDaysBefore)
	assert.Equal(t, date("2024-06-13"), first.AlertDate)
	assert.Equal(t, date("2024-06-20"), first.MaturityDate)
	assert.True(t, first.EstimatedInterest.Equal(service.EstimateMaturityInterest(dec("10000"), dec("0.05"), 19)))
	require.NotNil(t, first.NewTermMonths)
	assert.Equal(t, 12, *first.NewTermMonths)

	second := byPosition[edge.ID]
	require.NotNil(t, second)
	assert.Equal(t, domain.RenewalAuto, second.RenewalOption)
	assert.Equal(t, "user-2", second.UserID)

	t.Run("rescanning creates nothing", func(t *testing.T) {
		again, err := scanner.ScanUpcomingMaturityDeposits(ctx, 30)
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	t.Run("a cancelled alert can be raised again", func(t *testing.T) {
		_, err := scanner.CancelAlert(ctx, "user-1", first.ID)
		require.NoError(t, err)

		again, err := scanner.ScanUpcomingMaturityDeposits(ctx, 30)
		require.NoError(t, err)
		require.Len(t, again, 1)
		assert.Equal(t, soon.ID, again[0].PositionID)
		assert.NotEqual(t, first.ID, again[0].ID)
	})

	t.Run("negative window", func(t *testing.T) {
		_, err := scanner.ScanUpcomingMaturityDeposits(ctx, -1)
		assert.ErrorIs(t, err, customError.ErrInvalidArgument)
	})
}

func TestGetPendingNotifications(t *testing.T) {
	store := memory.NewStore()
	scanner := service.NewMaturityScanner(store, fixedClock())
	ctx := context.Background()

	// matures in 3 days, alert date is today + 1
	seedDeposit(t, store, timeDeposit("user-1", "2023-06-04"))
	// matures in 1 day, alert date is today
	_, due := seedDeposit(t, store, timeDeposit("user-1", "2023-06-02"))

	_, err := scanner.ScanUpcomingMaturityDeposits(ctx, 30)
	require.NoError(t, err)

	pending, err := scanner.GetPendingNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, due.ID, pending[0].PositionID)

	require.NoError(t, scanner.MarkNotificationSent(ctx, pending[0].ID))

	pending, err = scanner.GetPendingNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAlertTransitions(t *testing.T) {
	store := memory.NewStore()
	scanner := service.NewMaturityScanner(store, fixedClock())
	ctx := context.Background()

	seedDeposit(t, store, timeDeposit("user-1", "2023-06-20"))
	alerts, err := scanner.ScanUpcomingMaturityDeposits(ctx, 30)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	alertID := alerts[0].ID

	t.Run("other user", func(t *testing.T) {
		_, err := scanner.AcknowledgeAlert(ctx, "user-2", alertID)
		assert.ErrorIs(t, err, customError.ErrUnauthorized)
	})

	t.Run("unknown alert", func(t *testing.T) {
		_, err := scanner.AcknowledgeAlert(ctx, "user-1", uuid.New())
		assert.ErrorIs(t, err, customError.ErrNotFound)
	})

	t.Run("pending to notified", func(t *testing.T) {
		alert, err := scanner.AcknowledgeAlert(ctx, "user-1", alertID)
		require.NoError(t, err)
		assert.Equal(t, domain.AlertStatusNotified, alert.Status)
		require.NotNil(t, alert.NotifiedAt)
		assert.Equal(t, today, *alert.NotifiedAt)
	})

	t.Run("notified cannot be notified again", func(t *testing.T) {
		err := scanner.MarkNotificationSent(ctx, alertID)
		assert.ErrorIs(t, err, customError.ErrInvalidStatusTransition)
	})

	t.Run("notified to cancelled", func(t *testing.T) {
		alert, err := scanner.CancelAlert(ctx, "user-1", alertID)
		require.NoError(t, err)
		assert.Equal(t, domain.AlertStatusCancelled, alert.Status)
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		_, err := scanner.CancelAlert(ctx, "user-1", alertID)
		assert.ErrorIs(t, err, customError.ErrInvalidStatusTransition)
	})

	t.Run("listing filters by status", func(t *testing.T) {
		status := domain.AlertStatusCancelled
		cancelled, err := scanner.ListAlerts(ctx, "user-1", &status)
		require.NoError(t, err)
		assert.Len(t, cancelled, 1)

		status = domain.AlertStatusPending
		pending, err := scanner.ListAlerts(ctx, "user-1", &status)
		require.NoError(t, err)
		assert.Empty(t, pending)

		theirs, err := scanner.ListAlerts(ctx, "user-2", nil)
		require.NoError(t, err)
		assert.Empty(t, theirs)
	})
}

func TestCreateAlert(t *testing.T) {
	store := memory.NewStore()
	scanner := service.NewMaturityScanner(store, fixedClock())
	ctx := context.Background()

	_, position := seedDeposit(t, store, timeDeposit("user-1", "2023-12-01"))
	_, demand := seedDeposit(t, store, demandDeposit("user-1", "2023-12-01"))
	_, matured := seedDeposit(t, store, timeDeposit("user-1", "2023-01-01"))

	term := 6
	alert, err := scanner.CreateAlert(ctx, "user-1", position.ID, domain.CreateAlertRequest{
		RenewalOption: domain.RenewalTransferToDemand,
		NewTermMonths: &term,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RenewalTransferToDemand, alert.RenewalOption)
	assert.Equal(t, 6, *alert.NewTermMonths)
	assert.Equal(t, date("2024-12-01"), alert.MaturityDate)
	assert.Equal(t, 30, alert.AlertDaysBefore)

	got, err := scanner.GetAlert(ctx, "user-1", alert.ID)
	require.NoError(t, err)
	assert.Equal(t, alert.ID, got.ID)

	tests := []struct {
		name       string
		user       string
		positionID uuid.UUID
		req        domain.CreateAlertRequest
		target     error
	}{
		{"second active alert", "user-1", position.ID, domain.CreateAlertRequest{}, customError.ErrConflict},
		{"other user", "user-2", position.ID, domain.CreateAlertRequest{}, customError.ErrUnauthorized},
		{"demand deposit", "user-1", demand.ID, domain.CreateAlertRequest{}, customError.ErrInvalidArgument},
		{"already matured", "user-1", matured.ID, domain.CreateAlertRequest{}, customError.ErrInvalidArgument},
		{"unknown position", "user-1", uuid.New(), domain.CreateAlertRequest{}, customError.ErrNotFound},
		{"bad option", "user-1", position.ID, domain.CreateAlertRequest{RenewalOption: "SOMETIMES"}, customError.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scanner.CreateAlert(ctx, tt.user, tt.positionID, tt.req)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}
