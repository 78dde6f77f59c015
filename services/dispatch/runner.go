package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"prodcat/catalogworker/internal/spider"
	"prodcat/catalogworker/logger"
)

// Engine runs one spider to completion
type Engine interface {
	Run(ctx context.Context, sp spider.Spider) error
}

// Runner executes one job: it builds the spider from its registry definition
// and drives it through the engine. A panic inside a run is contained and
// reported as a run failure instead of crashing the worker.
type Runner struct {
	engine   Engine
	registry *spider.Registry
	log      *logger.Logger
}

// NewRunner creates a runner backed by the given engine and registry
func NewRunner(engine Engine, registry *spider.Registry) *Runner {
	return &Runner{
		engine:   engine,
		registry: registry,
		log:      logger.ForDispatch(),
	}
}

// Run executes a single job attempt
func (r *Runner) Run(ctx context.Context, job Job) (err error) {
	log := r.log.WithFields(logger.Fields{
		"job_id":      job.ID,
		"spider_type": string(job.SpiderType),
	})

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("panic", fmt.Sprintf("%v", rec)).
				Str("stack", string(debug.Stack())).
				Msg("Spider job panicked")
			err = fmt.Errorf("spider run panicked: %v", rec)
		}
	}()

	def, err := r.registry.Lookup(job.SpiderType)
	if err != nil {
		return err
	}

	log.Info().Str("spider", def.DisplayName).Msg("Starting spider job")
	start := time.Now()

	if err := r.engine.Run(ctx, def.New(job.Overrides)); err != nil {
		log.Error().
			Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("Spider job failed")
		return err
	}

	log.Info().
		Dur("elapsed", time.Since(start)).
		Msg("Spider job completed successfully")
	return nil
}
