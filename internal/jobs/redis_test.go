package jobs

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run redis integration tests")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
			Labels:       map[string]string{"test": "deposit-engine-jobs"},
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate test container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	return client
}

func TestRedisLocker(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	locker := NewRedisLocker(client)
	key := lockKeyPrefix + DailyAccrualJobName

	unlock, ok, err := locker.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	require.NoError(t, unlock(ctx))

	again, ok, err := locker.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("stale unlock leaves a newer lease alone", func(t *testing.T) {
		require.NoError(t, unlock(ctx))

		exists, err := client.Exists(ctx, key).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)

		require.NoError(t, again(ctx))
	})
}

func TestRedisNotifier(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	channel := "deposit:maturity-alerts:test"

	sub := client.Subscribe(ctx, channel)
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	term := 6
	alert := &domain.MaturityAlert{
		ID:                uuid.New(),
		PositionID:        uuid.New(),
		UserID:            "alice",
		MaturityDate:      time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
		PrincipalAmount:   decimal.NewFromInt(10000),
		EstimatedInterest: decimal.RequireFromString("41.1"),
		RenewalOption:     domain.RenewalAuto,
		NewTermMonths:     &term,
	}

	require.NoError(t, NewRedisNotifier(client, channel).NotifyMaturity(ctx, alert))

	select {
	case msg := <-sub.Channel():
		var got MaturityNotification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, alert.ID.String(), got.AlertID)
		assert.Equal(t, "2024-06-20", got.MaturityDate)
		assert.Equal(t, "10000.00", got.PrincipalAmount)
		assert.Equal(t, "41.10", got.EstimatedInterest)
		assert.Equal(t, 6, *got.NewTermMonths)
	case <-time.After(5 * time.Second):
		t.Fatal("notification was not published")
	}
}

func TestLogNotifier(t *testing.T) {
	alert := &domain.MaturityAlert{
		ID:                uuid.New(),
		PositionID:        uuid.New(),
		UserID:            "alice",
		MaturityDate:      time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
		PrincipalAmount:   decimal.NewFromInt(10000),
		EstimatedInterest: decimal.NewFromInt(41),
		RenewalOption:     domain.RenewalManual,
	}
	assert.NoError(t, LogNotifier{}.NotifyMaturity(context.Background(), alert))
}
