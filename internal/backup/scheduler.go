package backup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs the periodic export job. Job failures are logged and the
// schedule keeps running.
type Scheduler struct {
	log       *slog.Logger
	svc       *Service
	scheduler gocron.Scheduler
	retain    int
}

// NewScheduler registers the export job under the given cron expression.
// Times are interpreted in the host's local time zone.
func NewScheduler(log *slog.Logger, svc *Service, cronExpr string, retain int) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.Local))
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}
	s := &Scheduler{log: log, svc: svc, scheduler: sched, retain: retain}
	if _, err := sched.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(s.run),
		gocron.WithName("backup-export"),
	); err != nil {
		return nil, fmt.Errorf("registering backup job: %w", err)
	}
	return s, nil
}

// Start begins running the job on its schedule.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.log.Info("backup scheduler started", "retain", s.retain)
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	path, err := s.svc.Export(ctx)
	if err != nil {
		s.log.Error("scheduled backup failed", "error", err)
		return
	}
	removed, err := s.svc.Prune(s.retain)
	if err != nil {
		s.log.Warn("pruning old backups failed", "error", err)
	}
	s.log.Info("scheduled backup written", "path", path, "pruned", removed)
}
