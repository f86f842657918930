package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/wx-forecast/internal/logger"
	"github.com/i474232898/wx-forecast/internal/pipeline"
	"github.com/i474232898/wx-forecast/internal/weather"
)

const defaultJobTimeout = 5 * time.Minute

// Runner is the part of pipeline.Runner the scheduler needs.
type Runner interface {
	Run(ctx context.Context, v pipeline.Variant) (*pipeline.Result, error)
}

// Scheduler runs one forecast query per day at a fixed wall-clock time.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	variant   pipeline.Variant
	at        string
	timeout   time.Duration
	log       *logger.Logger
}

// New creates a Scheduler firing daily at at (HH:MM, local time).
func New(runner Runner, variant pipeline.Variant, at string, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	s := gocron.NewScheduler(time.Local)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		variant:   variant,
		at:        at,
		timeout:   defaultJobTimeout,
		log:       log,
	}
}

// Start schedules the daily job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Day().At(s.at).Do(s.job); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.log.Infow("scheduler started", "variant", string(s.variant), "at", s.at)
	return nil
}

// NextRun returns when the job fires next.
func (s *Scheduler) NextRun() time.Time {
	_, next := s.scheduler.NextRun()
	return next
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) job() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.log.Infow("scheduler: running forecast job", "variant", string(s.variant))
	res, err := s.runner.Run(ctx, s.variant)
	switch {
	case errors.Is(err, weather.ErrOnCooldown):
		s.log.Infow("scheduler: skipped, query on cooldown", "error", err)
	case err != nil:
		s.log.Errorw("scheduler: forecast job failed", "error", err)
	default:
		s.log.Infow("scheduler: completed forecast job", "report", res.ReportPath)
	}
}
