// Package scheduler triggers digest runs on a cron expression.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"video_digest/internal/digest"
)

// Runner executes one digest run.
type Runner interface {
	Run(ctx context.Context, now time.Time) (digest.Summary, error)
}

// Scheduler fires the runner on every tick of its cron expression.
// Overlapping ticks are skipped while a run is still in progress.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
	ctx     context.Context
}

// New creates a Scheduler. spec is a standard five field cron expression
// or a descriptor such as "@every 5m", evaluated in loc.
func New(runner Runner, spec string, loc *time.Location, log *slog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{log: log}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:  runner,
		log:     log,
		timeout: 30 * time.Minute,
		now:     time.Now,
		ctx:     context.Background(),
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return s, nil
}

// SetTimeout overrides the default 30-minute limit of a single run.
func (s *Scheduler) SetTimeout(d time.Duration) {
	s.timeout = d
}

// Run starts the trigger loop, blocking until ctx is cancelled and the
// running job, if any, has finished.
func (s *Scheduler) Run(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.log.Info("scheduler started", "next", s.Next())

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Next returns the time of the next tick.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(s.now())
}

func (s *Scheduler) tick() {
	if err := s.RunOnce(s.ctx); err != nil {
		s.log.Error("digest run", "error", err)
	}
}

// RunOnce executes a single run at the current minute.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.now()
	sum, err := s.runner.Run(ctx, start.Truncate(time.Minute))
	if err != nil {
		return fmt.Errorf("run %s: %w", sum.RunID, err)
	}
	s.log.Debug("digest run completed",
		"run_id", sum.RunID,
		"configs", sum.Configs,
		"delivered", sum.Delivered,
		"duration", time.Since(start),
	)
	return nil
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
