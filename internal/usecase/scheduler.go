package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// Scheduler wires the recurring driver with unattended publishing of every source.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	count    int
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring publish runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, count int, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, pipeline: pipeline, count: count, logger: log}
}

// Start registers the publish job with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.RunOnce(ctx, trigger)
	}

	return s.driver.Start(ctx, job)
}

// RunOnce publishes from every source; a failing source does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) map[string]domain.Outcome {
	results := make(map[string]domain.Outcome)
	for _, source := range s.pipeline.Sources() {
		if ctx.Err() != nil {
			break
		}
		outcome, err := s.pipeline.Dispatch(ctx, DispatchRequest{
			Action: domain.ActionPublish,
			Source: source,
			Count:  s.count,
		})
		if err != nil {
			s.logger.Warn("scheduled publish failed", "source", source, "trigger", trigger, "error", err)
			continue
		}
		results[source] = outcome
	}
	return results
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
