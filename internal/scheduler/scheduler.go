// Package scheduler runs periodic reprocessing on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"budge/statements/internal/logging"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule reprocesses once a day at 06:00.
const DefaultSchedule = "0 6 * * *"

// Job is the work run on every tick.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a cron schedule. A tick that arrives while the
// previous run is still going is skipped.
type Scheduler struct {
	job     Job
	timeout time.Duration
	logger  logging.Logger

	mu       sync.Mutex
	cron     *cron.Cron
	location *time.Location
}

// New creates a scheduler for job. Each run is bounded by timeout when it is
// positive.
func New(job Job, timeout time.Duration, logger logging.Logger) *Scheduler {
	return &Scheduler{
		job:     job,
		timeout: timeout,
		logger:  logging.OrDefault(logger),
	}
}

// Start registers the job under spec, evaluated in timezone, and starts the
// cron loop. An unknown timezone falls back to UTC.
func (s *Scheduler) Start(spec, timezone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("scheduler already started")
	}
	if spec == "" {
		spec = DefaultSchedule
	}

	loc := time.UTC
	if timezone != "" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			s.logger.WithError(err).Warn("Invalid timezone, falling back to UTC",
				logging.F("timezone", timezone))
			loc = time.UTC
		}
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("unable to schedule reprocess job %q: %w", spec, err)
	}

	c.Start()
	s.cron = c
	s.location = loc
	s.logger.Info("Scheduler started",
		logging.F(logging.FieldSchedule, spec),
		logging.F("timezone", loc.String()))
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Location returns the timezone the schedule is evaluated in, or nil before
// Start.
func (s *Scheduler) Location() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// RunOnce runs the job immediately.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := s.job(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Scheduled reprocess failed",
			logging.F(logging.FieldDuration, time.Since(start).String()))
		return err
	}
	s.logger.Info("Scheduled reprocess completed",
		logging.F(logging.FieldDuration, time.Since(start).String()))
	return nil
}

func (s *Scheduler) tick() {
	_ = s.RunOnce(context.Background())
}
