// Package scheduler runs the background jobs (cache cleanup, nightly
// retrain, backup) on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// jobTimeout bounds a single job run; a hung provider call must not pin a
// cron slot forever
const jobTimeout = 30 * time.Minute

// Job is one schedulable unit of background work
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler wraps the cron runner with logging and per-run timeouts
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a stopped scheduler
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds a job on a standard 5-field cron spec
func (s *Scheduler) Register(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s on %q: %w", job.Name(), spec, err)
	}
	s.log.Info().Str("job", job.Name()).Str("spec", spec).Msg("Job scheduled")
	return nil
}

// Start launches the cron runner in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop halts scheduling and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// RunNow executes a job immediately, outside its schedule
func (s *Scheduler) RunNow(job Job) {
	s.runJob(job)
}

func (s *Scheduler) runJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	s.log.Info().Str("job", job.Name()).Msg("Job starting")

	if err := job.Run(ctx); err != nil {
		s.log.Error().Err(err).Str("job", job.Name()).Dur("took", time.Since(started)).Msg("Job failed")
		return
	}
	s.log.Info().Str("job", job.Name()).Dur("took", time.Since(started)).Msg("Job finished")
}
