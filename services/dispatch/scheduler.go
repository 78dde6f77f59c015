package dispatch

import (
	"context"
	"time"

	"prodcat/catalogworker/internal/spider"
	"prodcat/catalogworker/logger"
)

// Scheduler dispatches every implemented spider once a day at a fixed local
// time
type Scheduler struct {
	dispatcher *Dispatcher
	registry   *spider.Registry
	at         string
	log        *logger.Logger
}

// NewScheduler creates a scheduler firing daily at "HH:MM" local time
func NewScheduler(dispatcher *Dispatcher, registry *spider.Registry, at string) *Scheduler {
	return &Scheduler{
		dispatcher: dispatcher,
		registry:   registry,
		at:         at,
		log:        logger.ForDispatch(),
	}
}

// Start waits for each daily firing time and dispatches all spiders, until
// the context is cancelled
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info().Str("at", s.at).Msg("Daily scheduler started")

	for {
		next, err := nextRun(time.Now(), s.at)
		if err != nil {
			s.log.Error().Err(err).Str("at", s.at).Msg("Invalid schedule time, scheduler disabled")
			return
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info().Msg("Daily scheduler stopped")
			return
		case <-timer.C:
		}

		s.dispatchAll(ctx)
	}
}

// dispatchAll enqueues one job per implemented spider with default options
func (s *Scheduler) dispatchAll(ctx context.Context) {
	for _, def := range s.registry.Available() {
		if _, _, err := s.dispatcher.Dispatch(ctx, def.Type, spider.Overrides{}); err != nil {
			s.log.Error().
				Err(err).
				Str("spider_type", string(def.Type)).
				Msg("Scheduled dispatch failed")
		}
	}
}

// nextRun returns the next occurrence of "HH:MM" local time strictly after
// now
func nextRun(now time.Time, at string) (time.Time, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return time.Time{}, err
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}
