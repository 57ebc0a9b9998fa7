package usecase

import (
	"context"
	"log/slog"
	"time"

	"ResearchAgent/internal/ports"
)

// Submitter is the part of the pipeline the watchlist needs.
type Submitter interface {
	Submit(ctx context.Context, url string) (SubmitOutput, error)
}

// Scheduler resubmits a fixed watchlist of URLs on every trigger of the driver.
type Scheduler struct {
	driver    ports.Scheduler
	submitter Submitter
	urls      []string
	logger    *slog.Logger
}

// NewScheduler returns a helper to start/stop the watchlist job.
func NewScheduler(driver ports.Scheduler, submitter Submitter, urls []string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, submitter: submitter, urls: urls, logger: logger}
}

// Start registers the watchlist run with the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.submitter == nil || len(s.urls) == 0 {
		return nil
	}

	job := func(trigger time.Time) {
		s.RunOnce(ctx, trigger)
	}

	return s.driver.Start(ctx, job)
}

// RunOnce submits every watchlist URL in order. Failures are logged and do not
// stop the remaining URLs.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) int {
	s.logger.Info("watchlist run started", "trigger", trigger, "urls", len(s.urls))

	completed := 0
	for _, url := range s.urls {
		if ctx.Err() != nil {
			break
		}
		out, err := s.submitter.Submit(ctx, url)
		if err != nil {
			s.logger.Error("watchlist submission failed", "url", url, "error", err)
			continue
		}
		s.logger.Debug("watchlist submission done", "url", url, "id", out.ID)
		completed++
	}

	s.logger.Info("watchlist run finished", "completed", completed)
	return completed
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
