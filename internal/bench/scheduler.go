package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/go-co-op/gocron/v2"

	"dnsjumper/internal/profile"
)

// Scheduler runs periodic background benchmarks so latency history stays
// fresh without user interaction.
type Scheduler struct {
	scheduler gocron.Scheduler
	runner    *Runner
	profiles  func() []profile.Profile
	interval  time.Duration
	running   bool
}

// NewScheduler creates a new benchmark scheduler. profiles is called at the
// start of every run so newly added profiles are picked up automatically.
func NewScheduler(runner *Runner, profiles func() []profile.Profile, interval time.Duration) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: scheduler,
		runner:    runner,
		profiles:  profiles,
		interval:  interval,
	}, nil
}

// Start starts the scheduler and triggers an immediate first run.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			s.runOnce(ctx)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create benchmark job: %w", err)
	}

	s.scheduler.Start()
	s.running = true

	go s.runOnce(ctx)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	if !s.running {
		return fmt.Errorf("scheduler is not running")
	}

	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}

	s.running = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return s.running
}

func (s *Scheduler) runOnce(ctx context.Context) {
	profiles := s.profiles()
	if len(profiles) == 0 {
		return
	}

	reports, err := s.runner.Run(ctx, profiles, nil)
	if err != nil {
		log.WithError(err).Warn("scheduled benchmark aborted")
		return
	}

	for _, report := range reports {
		entry := log.WithField("profile", report.Profile.Name).WithField("rank", report.Rank)
		if report.OK {
			entry.WithField("latency", report.Aggregate.Round(time.Millisecond).String()).Info("benchmark complete")
		} else {
			entry.Warn("all servers failed")
		}
	}
}
