package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/segyhp/deposit-engine/internal/app"
	"github.com/segyhp/deposit-engine/internal/config"
	"github.com/segyhp/deposit-engine/internal/database"
	"github.com/segyhp/deposit-engine/internal/jobs"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ConfigureLogging()

	if len(os.Args) > 1 {
		if err := runCommand(cfg, os.Args[1:]); err != nil {
			log.Fatal(err)
		}
		return
	}

	log.Info("Starting deposit scheduler...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer a.Close()

	// Initialize cron scheduler
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.GetLocation()),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.StandardLogger()))),
	)

	// Schedule tasks
	if err := setupCronJobs(c, a); err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}

	// Start the scheduler
	c.Start()
	log.WithField("timezone", cfg.Scheduler.Timezone).Info("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, a *app.App) error {
	schedule := []struct {
		spec string
		job  jobs.Job
	}{
		{a.Config.Scheduler.DailyAccrualSpec, a.DailyAccrual},
		{a.Config.Scheduler.AutoMaturitySpec, a.AutoMaturitySweep},
		{a.Config.Scheduler.MaturityScanSpec, a.MaturityScan},
		{a.Config.Scheduler.NotificationSpec, a.NotificationDispatch},
	}

	for _, s := range schedule {
		if _, err := c.AddFunc(s.spec, a.Runner.RunFunc(s.job)); err != nil {
			return fmt.Errorf("error scheduling %s job: %w", s.job.Name(), err)
		}
		log.WithFields(log.Fields{
			"job":  s.job.Name(),
			"spec": s.spec,
		}).Info("Job scheduled")
	}

	return nil
}

// runCommand handles the one-shot subcommands:
//
//	migrate up | migrate down [N] | migrate status
//	run <job>
func runCommand(cfg *config.Config, args []string) error {
	switch args[0] {
	case "migrate":
		return migrateCommand(cfg, args[1:])
	case "run":
		if len(args) < 2 {
			return fmt.Errorf("usage: scheduler run <job>")
		}
		return runJobOnce(cfg, args[1])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func migrateCommand(cfg *config.Config, args []string) error {
	if cfg.UsesMemoryStore() {
		return fmt.Errorf("migrations need DATABASE_DRIVER=%s", config.DriverPostgres)
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: scheduler migrate up|down [N]|status")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	switch args[0] {
	case "up":
		return database.MigrateUp(db.DB)
	case "down":
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil || steps <= 0 {
				return fmt.Errorf("down needs a positive number of steps")
			}
		}
		return database.MigrateDown(db.DB, steps)
	case "status":
		version, dirty, err := database.MigrateStatus(db.DB)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"version": version,
			"dirty":   dirty,
		}).Info("Migration status")
		return nil
	default:
		return fmt.Errorf("unknown migrate command %q", args[0])
	}
}

func runJobOnce(cfg *config.Config, name string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, job := range a.Jobs() {
		if job.Name() != name {
			continue
		}
		summary, err := a.Runner.Run(ctx, job)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"job":       summary.Job,
			"processed": summary.Processed,
			"succeeded": summary.Succeeded,
			"failed":    summary.Failed,
			"skipped":   summary.Skipped,
		}).Info("Job run complete")
		return nil
	}

	return fmt.Errorf("unknown job %q", name)
}
