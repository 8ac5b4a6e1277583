package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
)

// nextRunner is implemented by drivers that can report their next activation.
type nextRunner interface {
	Next(t time.Time) time.Time
}

// Scheduler wires the cron-like driver with the latest-headlines warm-up.
type Scheduler struct {
	driver ports.Scheduler
	news   *NewsService
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring warm-up.
func NewScheduler(driver ports.Scheduler, news *NewsService, log *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, news: news, logger: logging.OrDiscard(log)}
}

// Start registers the warm-up job with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.news == nil {
		return nil
	}

	job := func(trigger time.Time) {
		articles, err := s.news.Latest(ctx)
		if err != nil {
			s.logger.Warn("warm-up failed", "trigger", trigger, "error", err)
			return
		}
		s.logger.Info("warm-up finished", "trigger", trigger, "articles", len(articles), "next", s.next(trigger))
	}

	if err := s.driver.Start(ctx, job); err != nil {
		return err
	}
	s.logger.Info("warm-up scheduled", "next", s.next(time.Now()))
	return nil
}

func (s *Scheduler) next(from time.Time) time.Time {
	if n, ok := s.driver.(nextRunner); ok {
		return n.Next(from)
	}
	return time.Time{}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
