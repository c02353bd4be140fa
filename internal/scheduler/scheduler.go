package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/RoqueChristian/inventario/internal/config"
	"github.com/RoqueChristian/inventario/internal/domain/models"
)

const jobTimeout = 2 * time.Minute

// Reporter produces what the scheduled jobs publish.
type Reporter interface {
	Warm(ctx context.Context) ([]string, error)
	Snapshot(ctx context.Context, selection string) (models.Snapshot, error)
	Digest(ctx context.Context, selection string) (string, error)
}

// SnapshotStore persists snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot models.Snapshot) error
}

// SnapshotPublisher mirrors snapshots somewhere people read them.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snapshot models.Snapshot) error
}

// DigestSender delivers the text digest.
type DigestSender interface {
	SendDigest(ctx context.Context, digest string) error
}

// Sinks are the optional snapshot destinations. Nil fields are skipped.
type Sinks struct {
	Store     SnapshotStore
	Publisher SnapshotPublisher
	Notifier  DigestSender
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	reporter Reporter
	sinks    Sinks
	cfg      config.ReportingConfig
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler running in cfg.Timezone.
func NewScheduler(cfg config.ReportingConfig, reporter Reporter, sinks Sinks, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
		}
	}

	// Standard 5 field specs: minute, hour, day of month, month, day of week.
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		reporter: reporter,
		sinks:    sinks,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Start registers the jobs and starts the scheduler. An empty spec disables
// the corresponding job.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("refresh", s.cfg.RefreshCron),
		zap.String("snapshot", s.cfg.SnapshotCron),
		zap.String("timezone", s.cron.Location().String()))

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"refresh", s.cfg.RefreshCron, s.runRefresh},
		{"snapshot", s.cfg.SnapshotCron, s.runSnapshot},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return fmt.Errorf("schedule %s job %q: %w", job.name, job.spec, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("stopping scheduler")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stopped before running jobs finished")
	}
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Refresh warms the loader cache and logs the files that failed to load.
func (s *Scheduler) Refresh(ctx context.Context) error {
	warnings, err := s.reporter.Warm(ctx)
	if err != nil {
		return fmt.Errorf("warm cache: %w", err)
	}
	for _, w := range warnings {
		s.logger.Warn("movement file failed to load during refresh", zap.String("warning", w))
	}
	s.logger.Debug("cache refreshed", zap.Int("warnings", len(warnings)))
	return nil
}

// PublishSnapshot builds a snapshot for the configured branch and pushes it
// to every configured sink. A failing sink does not stop the others; the
// returned error joins every failure.
func (s *Scheduler) PublishSnapshot(ctx context.Context) error {
	branch := s.cfg.SnapshotBranch

	snapshot, err := s.reporter.Snapshot(ctx, branch)
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}

	var errs []error
	if s.sinks.Store != nil {
		if err := s.sinks.Store.SaveSnapshot(ctx, snapshot); err != nil {
			s.logger.Error("failed to store snapshot", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if s.sinks.Publisher != nil {
		if err := s.sinks.Publisher.PublishSnapshot(ctx, snapshot); err != nil {
			s.logger.Error("failed to publish snapshot to sheet", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if s.sinks.Notifier != nil {
		if err := s.sendDigest(ctx, branch); err != nil {
			s.logger.Error("failed to send digest", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		s.logger.Info("snapshot published", zap.String("id", snapshot.ID), zap.String("branch", snapshot.Branch))
	}
	return errors.Join(errs...)
}

func (s *Scheduler) sendDigest(ctx context.Context, branch string) error {
	digest, err := s.reporter.Digest(ctx, branch)
	if err != nil {
		return fmt.Errorf("build digest: %w", err)
	}
	return s.sinks.Notifier.SendDigest(ctx, digest)
}

func (s *Scheduler) runRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.Refresh(ctx); err != nil {
		s.logger.Error("refresh job failed", zap.Error(err))
	}
}

func (s *Scheduler) runSnapshot() {
	s.logger.Info("generating scheduled snapshot")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	// failures are already logged per sink
	_ = s.PublishSnapshot(ctx)
}
