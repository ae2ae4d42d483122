package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/repository"
	customError "github.com/segyhp/deposit-engine/pkg/errors"
	"github.com/segyhp/deposit-engine/pkg/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// DailyAccrualJob calculates and records interest for every owner's DEMAND and
// TIME positions once per calendar day.
type DailyAccrualJob struct {
	store      repository.Store
	calculator InterestCalculator
	recorder   CalculationRecorder
	now        func() time.Time
}

func NewDailyAccrualJob(store repository.Store, calculator InterestCalculator, recorder CalculationRecorder, now func() time.Time) *DailyAccrualJob {
	if now == nil {
		now = time.Now
	}
	return &DailyAccrualJob{
		store:      store,
		calculator: calculator,
		recorder:   recorder,
		now:        now,
	}
}

func (j *DailyAccrualJob) Name() string {
	return DailyAccrualJobName
}

// Run skips a date that already has an accrual run.
func (j *DailyAccrualJob) Run(ctx context.Context) (*domain.JobSummary, error) {
	today := utils.Today(j.now)
	repos := j.store.Repos()

	summary := &domain.JobSummary{
		Job:      DailyAccrualJobName,
		RunDate:  today,
		Failures: []domain.PositionFailure{},
	}

	_, err := repos.AccrualRuns.GetByDate(ctx, today)
	switch {
	case err == nil:
		log.WithField("run_date", today.Format(utils.DateLayout)).Info("Interest already accrued for date, skipping")
		summary.Skipped = true
		return summary, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, customError.WrapPersistenceFailure(err)
	}

	owners, err := repos.Positions.ListOwners(ctx)
	if err != nil {
		return nil, customError.WrapPersistenceFailure(err)
	}

	total := decimal.Zero
	for _, owner := range owners {
		batch, err := j.calculator.BatchCalculateInterest(ctx, owner, today, domain.CalculationConfig{})
		if err != nil {
			log.WithField("user_id", owner).WithError(err).Error("Interest batch failed for user")
			summary.Failed++
			summary.Failures = append(summary.Failures, domain.PositionFailure{
				PositionID: uuid.Nil,
				Error:      fmt.Sprintf("user %s: %v", owner, err),
			})
			continue
		}

		for _, f := range batch.Failures {
			summary.Processed++
			summary.Failed++
			summary.Failures = append(summary.Failures, f)
		}

		for _, result := range batch.Results {
			summary.Processed++
			if _, err := j.recorder.RecordInterestCalculation(ctx, result); err != nil {
				log.WithField("position_id", result.PositionID).WithError(err).Error("Failed to record accrued interest")
				summary.Failed++
				summary.Failures = append(summary.Failures, domain.PositionFailure{PositionID: result.PositionID, Error: err.Error()})
				continue
			}
			summary.Succeeded++
			total = total.Add(result.AppliedInterest)
		}
	}

	encoded, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode accrual summary: %w", err)
	}

	run := &domain.AccrualRun{
		ID:                 uuid.New(),
		RunDate:            today,
		PositionsProcessed: summary.Processed,
		Succeeded:          summary.Succeeded,
		Failed:             summary.Failed,
		TotalAccrued:       total,
		Summary:            encoded,
		CreatedAt:          j.now().UTC(),
	}
	if err := repos.AccrualRuns.Create(ctx, run); err != nil {
		if errors.Is(err, repository.ErrAccrualRunExists) {
			log.WithField("run_date", today.Format(utils.DateLayout)).Warn("Accrual run was recorded concurrently")
			return summary, nil
		}
		return nil, customError.WrapPersistenceFailure(err)
	}

	log.WithFields(log.Fields{
		"run_date":      today.Format(utils.DateLayout),
		"processed":     summary.Processed,
		"succeeded":     summary.Succeeded,
		"failed":        summary.Failed,
		"total_accrued": total.String(),
	}).Info("Daily accrual finished")

	return summary, nil
}

// LatestRun returns the most recent recorded accrual run.
func (j *DailyAccrualJob) LatestRun(ctx context.Context) (*domain.AccrualRun, error) {
	run, err := j.store.Repos().AccrualRuns.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, customError.WrapAccrualRunNotFound()
		}
		return nil, customError.WrapPersistenceFailure(err)
	}
	return run, nil
}
