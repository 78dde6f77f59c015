package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"prodcat/catalogworker/logger"
	apperrors "prodcat/catalogworker/pkg/errors"
)

// popTimeout bounds each blocking queue read so the worker notices a
// cancelled context promptly
const popTimeout = 5 * time.Second

// JobRunner executes one job attempt
type JobRunner interface {
	Run(ctx context.Context, job Job) error
}

// Worker consumes jobs from the Redis queue and runs them one at a time.
// Each job gets a bounded timeout and a bounded number of attempts; errors a
// retry cannot fix, like an unknown spider type, are not retried.
type Worker struct {
	rdb         *redis.Client
	queueKey    string
	runner      JobRunner
	jobTimeout  time.Duration
	maxAttempts int
	log         *logger.Logger
}

// NewWorker creates a queue worker
func NewWorker(rdb *redis.Client, queueKey string, runner JobRunner, jobTimeout time.Duration, maxAttempts int) *Worker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Worker{
		rdb:         rdb,
		queueKey:    queueKey,
		runner:      runner,
		jobTimeout:  jobTimeout,
		maxAttempts: maxAttempts,
		log:         logger.ForDispatch(),
	}
}

// Start consumes jobs until the context is cancelled
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Str("queue", w.queueKey).Msg("Job worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Job worker stopped")
			return
		default:
		}

		result, err := w.rdb.BRPop(ctx, popTimeout, w.queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			w.log.Error().Err(err).Msg("Failed to read job queue")
			time.Sleep(time.Second)
			continue
		}

		// BRPop returns [key, value]
		if len(result) != 2 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			w.log.Error().Err(err).Str("payload", result[1]).Msg("Discarding malformed job")
			continue
		}

		w.execute(ctx, job)
	}
}

// execute runs one job with retries
func (w *Worker) execute(ctx context.Context, job Job) {
	log := w.log.WithField("job_id", job.ID)

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
		err := w.runner.Run(jobCtx, job)
		cancel()

		if err == nil {
			return
		}

		if apperrors.IsConfiguration(err) {
			log.Error().Err(err).Msg("Job failed with configuration error, not retrying")
			return
		}

		if ctx.Err() != nil {
			return
		}

		if attempt < w.maxAttempts {
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", w.maxAttempts).
				Msg("Job attempt failed, retrying")
			continue
		}

		log.Error().
			Err(err).
			Int("attempts", w.maxAttempts).
			Msg("Job failed after all attempts")
	}
}
