package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

// Job names
const (
	JobInsightBackfill = "insight-backfill"
	JobLLMHealth       = "llm-health"
)

// Completion API states reported by LLMStatus
const (
	StatusUnknown     = "unknown"
	StatusOK          = "ok"
	StatusUnreachable = "unreachable"
	StatusDisabled    = "disabled"
)

const (
	defaultBatch          = 50
	defaultHealthInterval = 5 * time.Minute
	backfillTimeout       = 10 * time.Minute
	healthTimeout         = 10 * time.Second
)

// Backfiller generates insights for journal entries that have none
type Backfiller interface {
	BackfillInsights(ctx context.Context, limit int) (int, error)
}

// HealthChecker probes the completion API
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	scheduler gocron.Scheduler
	backfill  Backfiller
	health    HealthChecker
	cfg       Config
	logger    *slog.Logger
	llmStatus atomic.Value
}

// Config holds scheduler configuration
type Config struct {
	Location         *time.Location
	BackfillInterval time.Duration
	BackfillBatch    int
	HealthInterval   time.Duration
	// Clock drives the job timers; nil means the real clock
	Clock clockwork.Clock
}

// New creates a new scheduler. A nil health checker disables the health job.
func New(backfill Backfiller, health HealthChecker, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.BackfillInterval <= 0 {
		cfg.BackfillInterval = time.Hour
	}
	if cfg.BackfillBatch <= 0 {
		cfg.BackfillBatch = defaultBatch
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = defaultHealthInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []gocron.SchedulerOption{gocron.WithLocation(cfg.Location)}
	if cfg.Clock != nil {
		opts = append(opts, gocron.WithClock(cfg.Clock))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, err
	}

	sch := &Scheduler{
		scheduler: s,
		backfill:  backfill,
		health:    health,
		cfg:       cfg,
		logger:    logger,
	}
	if health == nil {
		sch.llmStatus.Store(StatusDisabled)
	} else {
		sch.llmStatus.Store(StatusUnknown)
	}
	return sch, nil
}

// Start registers all jobs and starts the scheduler
func (s *Scheduler) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.cfg.BackfillInterval),
		gocron.NewTask(s.RunBackfill),
		gocron.WithName(JobInsightBackfill),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	if s.health != nil {
		_, err = s.scheduler.NewJob(
			gocron.DurationJob(s.cfg.HealthInterval),
			gocron.NewTask(s.RunHealthCheck),
			gocron.WithName(JobLLMHealth),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return err
		}
	}

	s.scheduler.Start()
	s.logger.Info("scheduler started", "jobs", len(s.scheduler.Jobs()), "backfill_interval", s.cfg.BackfillInterval)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

// JobNames lists the registered jobs
func (s *Scheduler) JobNames() []string {
	var names []string
	for _, j := range s.scheduler.Jobs() {
		names = append(names, j.Name())
	}
	return names
}

// RunBackfill processes one batch of entries without insights
func (s *Scheduler) RunBackfill() {
	ctx, cancel := context.WithTimeout(context.Background(), backfillTimeout)
	defer cancel()

	n, err := s.backfill.BackfillInsights(ctx, s.cfg.BackfillBatch)
	if err != nil {
		s.logger.Error("insight backfill failed", "processed", n, "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("insight backfill finished", "processed", n)
	}
}

// RunHealthCheck probes the completion API and records the result
func (s *Scheduler) RunHealthCheck() {
	if s.health == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	if err := s.health.HealthCheck(ctx); err != nil {
		if s.LLMStatus() != StatusUnreachable {
			s.logger.Warn("completion API unreachable", "error", err)
		}
		s.llmStatus.Store(StatusUnreachable)
		return
	}
	if s.LLMStatus() == StatusUnreachable {
		s.logger.Info("completion API reachable again")
	}
	s.llmStatus.Store(StatusOK)
}

// LLMStatus is the result of the latest health check
func (s *Scheduler) LLMStatus() string {
	return s.llmStatus.Load().(string)
}
