package jobs

import (
	"context"
	"time"

	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// AutoMaturitySweepJob renews the AUTO deposits that mature today.
type AutoMaturitySweepJob struct {
	renewer AutoRenewer
}

func NewAutoMaturitySweepJob(renewer AutoRenewer) *AutoMaturitySweepJob {
	return &AutoMaturitySweepJob{renewer: renewer}
}

func (j *AutoMaturitySweepJob) Name() string {
	return AutoMaturitySweepJobName
}

func (j *AutoMaturitySweepJob) Run(ctx context.Context) (*domain.JobSummary, error) {
	return j.renewer.ProcessAutoMaturityDeposits(ctx)
}

// MaturityScanJob raises alerts for deposits maturing within the look-ahead window.
type MaturityScanJob struct {
	scanner   MaturityScanner
	daysAhead int
	now       func() time.Time
}

func NewMaturityScanJob(scanner MaturityScanner, daysAhead int, now func() time.Time) *MaturityScanJob {
	if now == nil {
		now = time.Now
	}
	return &MaturityScanJob{
		scanner:   scanner,
		daysAhead: daysAhead,
		now:       now,
	}
}

func (j *MaturityScanJob) Name() string {
	return MaturityScanJobName
}

func (j *MaturityScanJob) Run(ctx context.Context) (*domain.JobSummary, error) {
	created, err := j.scanner.ScanUpcomingMaturityDeposits(ctx, j.daysAhead)
	if err != nil {
		return nil, err
	}

	return &domain.JobSummary{
		Job:       MaturityScanJobName,
		RunDate:   utils.Today(j.now),
		Processed: len(created),
		Succeeded: len(created),
	}, nil
}

// NotificationDispatchJob delivers due alerts and marks them NOTIFIED. An alert
// whose delivery fails stays PENDING and is retried on the next run.
type NotificationDispatchJob struct {
	source   NotificationSource
	notifier Notifier
	now      func() time.Time
}

func NewNotificationDispatchJob(source NotificationSource, notifier Notifier, now func() time.Time) *NotificationDispatchJob {
	if now == nil {
		now = time.Now
	}
	return &NotificationDispatchJob{
		source:   source,
		notifier: notifier,
		now:      now,
	}
}

func (j *NotificationDispatchJob) Name() string {
	return NotificationDispatchJobName
}

func (j *NotificationDispatchJob) Run(ctx context.Context) (*domain.JobSummary, error) {
	alerts, err := j.source.GetPendingNotifications(ctx)
	if err != nil {
		return nil, err
	}

	summary := &domain.JobSummary{
		Job:      NotificationDispatchJobName,
		RunDate:  utils.Today(j.now),
		Failures: []domain.PositionFailure{},
	}

	for _, alert := range alerts {
		summary.Processed++
		logger := log.WithFields(log.Fields{
			"alert_id":    alert.ID,
			"position_id": alert.PositionID,
		})

		if err := j.notifier.NotifyMaturity(ctx, alert); err != nil {
			logger.WithError(err).Warn("Maturity notification not delivered")
			summary.Failed++
			summary.Failures = append(summary.Failures, domain.PositionFailure{PositionID: alert.PositionID, Error: err.Error()})
			continue
		}

		if err := j.source.MarkNotificationSent(ctx, alert.ID); err != nil {
			logger.WithError(err).Error("Failed to mark notification sent")
			summary.Failed++
			summary.Failures = append(summary.Failures, domain.PositionFailure{PositionID: alert.PositionID, Error: err.Error()})
			continue
		}
		summary.Succeeded++
	}

	return summary, nil
}
