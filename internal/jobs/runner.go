package jobs

import (
	"context"
	"time"

	"github.com/segyhp/deposit-engine/internal/domain"
	log "github.com/sirupsen/logrus"
)

const lockKeyPrefix = "deposit-engine:job:"

// Runner executes jobs under a lock so a job never overlaps itself, even
// across scheduler replicas.
type Runner struct {
	locker  Locker
	lockTTL time.Duration
}

func NewRunner(locker Locker, lockTTL time.Duration) *Runner {
	return &Runner{
		locker:  locker,
		lockTTL: lockTTL,
	}
}

// Run returns a summary with Skipped set when the job is already running elsewhere.
func (r *Runner) Run(ctx context.Context, job Job) (*domain.JobSummary, error) {
	logger := log.WithField("job", job.Name())

	unlock, ok, err := r.locker.TryLock(ctx, lockKeyPrefix+job.Name(), r.lockTTL)
	if err != nil {
		logger.WithError(err).Error("Failed to acquire job lock")
		return nil, err
	}
	if !ok {
		logger.Info("Job already running, skipping")
		return &domain.JobSummary{Job: job.Name(), Skipped: true}, nil
	}
	defer func() {
		// release with a fresh context so a cancelled run still frees the lock
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := unlock(releaseCtx); err != nil {
			logger.WithError(err).Warn("Failed to release job lock")
		}
	}()

	started := time.Now()
	logger.Info("Job started")

	summary, err := job.Run(ctx)
	if err != nil {
		logger.WithError(err).Error("Job failed")
		return nil, err
	}

	logger.WithFields(log.Fields{
		"duration":  time.Since(started).String(),
		"processed": summary.Processed,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
	}).Info("Job finished")

	return summary, nil
}

// RunFunc adapts Run to the func() signature cron expects.
func (r *Runner) RunFunc(job Job) func() {
	return func() {
		_, _ = r.Run(context.Background(), job)
	}
}
