package app

import (
	"context"
	"testing"
	"time"

	"github.com/segyhp/deposit-engine/internal/config"
	"github.com/segyhp/deposit-engine/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MemoryWithoutRedis(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("REDIS_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.Nil(t, a.Redis)
	assert.NotNil(t, a.Store)

	names := make([]string, 0, len(a.Jobs()))
	for _, job := range a.Jobs() {
		names = append(names, job.Name())
	}
	assert.ElementsMatch(t, []string{
		jobs.DailyAccrualJobName,
		jobs.AutoMaturitySweepJobName,
		jobs.MaturityScanJobName,
		jobs.NotificationDispatchJobName,
	}, names)

	summary, err := a.Runner.Run(context.Background(), a.DailyAccrual)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
}

func TestNowInLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	assert.Equal(t, loc, nowInLocation(loc)().Location())
}
