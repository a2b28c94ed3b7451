// Package scheduler runs named jobs at fixed intervals, one at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/clock"
	"github.com/JakeFAU/dojobot/internal/metrics"
)

// ErrUnknownJob is returned by RunJob for a name that was never added.
var ErrUnknownJob = errors.New("unknown job")

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// IDGenerator issues run identifiers.
type IDGenerator interface {
	MustID() string
}

// Config controls the polling loop.
type Config struct {
	Tick       time.Duration
	RunOnStart bool
}

type entry struct {
	job  Job
	next time.Time
}

// Scheduler keeps jobs in registration order and never runs two at once.
type Scheduler struct {
	clock  clock.Clock
	ids    IDGenerator
	cfg    Config
	jobs   []*entry
	logger *zap.Logger
}

// New builds a Scheduler.
func New(clk clock.Clock, ids IDGenerator, cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		clock:  clk,
		ids:    ids,
		cfg:    cfg,
		logger: logger.Named("scheduler"),
	}
}

// Add registers a job. With RunOnStart the job is due immediately,
// otherwise one interval from now.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("job needs a name and a run function")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", job.Name)
	}
	for _, e := range s.jobs {
		if e.job.Name == job.Name {
			return fmt.Errorf("job %s already registered", job.Name)
		}
	}
	next := s.clock.Now()
	if !s.cfg.RunOnStart {
		next = next.Add(job.Interval)
	}
	s.jobs = append(s.jobs, &entry{job: job, next: next})
	s.logger.Info("job registered", zap.String("task", job.Name), zap.Duration("interval", job.Interval))
	return nil
}

// Jobs lists registered job names in order.
func (s *Scheduler) Jobs() []string {
	out := make([]string, 0, len(s.jobs))
	for _, e := range s.jobs {
		out = append(out, e.job.Name)
	}
	return out
}

// RunPending runs every due job once, in registration order, and returns
// how many ran. Job errors are logged and recorded, never returned.
func (s *Scheduler) RunPending(ctx context.Context) int {
	ran := 0
	for _, e := range s.jobs {
		if ctx.Err() != nil {
			return ran
		}
		if s.clock.Now().Before(e.next) {
			continue
		}
		_ = s.invoke(ctx, e.job)
		e.next = s.clock.Now().Add(e.job.Interval)
		ran++
	}
	return ran
}

// RunJob invokes one job immediately and returns its error.
func (s *Scheduler) RunJob(ctx context.Context, name string) error {
	for _, e := range s.jobs {
		if e.job.Name == name {
			return s.invoke(ctx, e.job)
		}
	}
	return fmt.Errorf("%s: %w", name, ErrUnknownJob)
}

// Run polls for due jobs every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", zap.Strings("jobs", s.Jobs()), zap.Duration("tick", s.cfg.Tick))
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	s.RunPending(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			s.RunPending(ctx)
		}
	}
}

func (s *Scheduler) invoke(ctx context.Context, job Job) (err error) {
	runID := s.ids.MustID()
	logger := s.logger.With(zap.String("task", job.Name), zap.String("run_id", runID))
	logger.Info("task started")
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", job.Name, r)
		}
		dur := time.Since(start)
		metrics.ObserveTask(job.Name, err, dur)
		if err != nil {
			logger.Error("task failed", zap.Duration("duration", dur), zap.Error(err))
			return
		}
		logger.Info("task finished", zap.Duration("duration", dur))
	}()

	return job.Run(ctx)
}
