// Package app wires configuration, storage and services into the components
// the server and the scheduler share.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/segyhp/deposit-engine/internal/config"
	"github.com/segyhp/deposit-engine/internal/database"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/jobs"
	"github.com/segyhp/deposit-engine/internal/repository"
	"github.com/segyhp/deposit-engine/internal/repository/memory"
	"github.com/segyhp/deposit-engine/internal/service"
	log "github.com/sirupsen/logrus"
)

// App holds the long-lived dependencies of a process.
type App struct {
	Config *config.Config

	// DB is nil with the memory driver.
	DB *sqlx.DB
	// Redis is nil when REDIS_ENABLED is false.
	Redis redis.UniversalClient

	Store      repository.Store
	Catalog    *service.CatalogService
	Calculator *service.AccrualCalculator
	Recorder   *service.InterestLedgerRecorder
	Scanner    *service.MaturityScanner
	Processor  *service.MaturityProcessor

	Runner               *jobs.Runner
	DailyAccrual         *jobs.DailyAccrualJob
	AutoMaturitySweep    *jobs.AutoMaturitySweepJob
	MaturityScan         *jobs.MaturityScanJob
	NotificationDispatch *jobs.NotificationDispatchJob
}

// New connects to the configured backends and builds every service.
func New(ctx context.Context, cfg *config.Config, opts ...service.Option) (*App, error) {
	a := &App{Config: cfg}

	now := nowInLocation(cfg.GetLocation())
	opts = append([]service.Option{service.WithClock(now)}, opts...)

	if cfg.UsesMemoryStore() {
		log.Warn("Using the in-memory store, data is lost on exit")
		a.Store = memory.NewStore()
	} else {
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.DB = db

		if cfg.Database.AutoMigrate {
			if err := database.MigrateUp(db.DB); err != nil {
				db.Close()
				return nil, err
			}
		}
		a.Store = repository.NewPostgresStore(db)
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("Redis is not reachable yet")
		}
		a.Redis = client
	}

	defaults := domain.CalculationConfig{
		Method:   cfg.GetCalculationMethod(),
		Rounding: cfg.GetRoundingPolicy(),
	}

	a.Catalog = service.NewCatalogService(a.Store, opts...)
	a.Calculator = service.NewAccrualCalculator(a.Store, defaults, opts...)
	a.Recorder = service.NewInterestLedgerRecorder(a.Store, opts...)
	a.Scanner = service.NewMaturityScanner(a.Store, opts...)
	a.Processor = service.NewMaturityProcessor(a.Store, opts...)

	var locker jobs.Locker = jobs.NoopLocker{}
	var notifier jobs.Notifier = jobs.LogNotifier{}
	if a.Redis != nil {
		locker = jobs.NewRedisLocker(a.Redis)
		notifier = jobs.NewRedisNotifier(a.Redis, cfg.Maturity.NotificationChannel)
	}

	a.Runner = jobs.NewRunner(locker, cfg.Scheduler.LockTTL)
	a.DailyAccrual = jobs.NewDailyAccrualJob(a.Store, a.Calculator, a.Recorder, now)
	a.AutoMaturitySweep = jobs.NewAutoMaturitySweepJob(a.Processor)
	a.MaturityScan = jobs.NewMaturityScanJob(a.Scanner, cfg.Maturity.ScanDaysAhead, now)
	a.NotificationDispatch = jobs.NewNotificationDispatchJob(a.Scanner, notifier, now)

	return a, nil
}

// nowInLocation reads the wall clock in the scheduler timezone so "today" is
// the business date of that zone.
func nowInLocation(loc *time.Location) func() time.Time {
	return func() time.Time {
		return time.Now().In(loc)
	}
}

// Jobs lists every scheduled job.
func (a *App) Jobs() []jobs.Job {
	return []jobs.Job{a.DailyAccrual, a.AutoMaturitySweep, a.MaturityScan, a.NotificationDispatch}
}

// Close releases the database and redis connections.
func (a *App) Close() error {
	var firstErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close redis: %w", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close database: %w", err)
		}
	}
	return firstErr
}
