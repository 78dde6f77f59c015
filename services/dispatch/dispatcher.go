package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"prodcat/catalogworker/internal/spider"
	"prodcat/catalogworker/logger"
	apperrors "prodcat/catalogworker/pkg/errors"
)

// Job is one queued spider run
type Job struct {
	ID         string            `json:"id"`
	SpiderType spider.SpiderType `json:"spider_type"`
	Overrides  spider.Overrides  `json:"overrides"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

// Dispatcher validates spider identifiers against the registry and pushes
// jobs onto the Redis queue. Concurrent dispatches of the same identifier are
// all enqueued; the queue does not deduplicate.
type Dispatcher struct {
	rdb      *redis.Client
	queueKey string
	registry *spider.Registry
	log      *logger.Logger
}

// NewDispatcher creates a dispatcher for the given queue
func NewDispatcher(rdb *redis.Client, queueKey string, registry *spider.Registry) *Dispatcher {
	return &Dispatcher{
		rdb:      rdb,
		queueKey: queueKey,
		registry: registry,
		log:      logger.ForDispatch(),
	}
}

// Dispatch enqueues a run of the given spider type. The identifier is
// validated before enqueueing so callers get a configuration error for
// unimplemented types instead of a job that fails later.
func (d *Dispatcher) Dispatch(ctx context.Context, spiderType spider.SpiderType, ov spider.Overrides) (Job, spider.Definition, error) {
	def, err := d.registry.Lookup(spiderType)
	if err != nil {
		return Job{}, spider.Definition{}, err
	}

	job := Job{
		ID:         uuid.NewString(),
		SpiderType: spiderType,
		Overrides:  ov,
		EnqueuedAt: time.Now(),
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return Job{}, spider.Definition{}, apperrors.NewConfiguration("failed to encode job", err)
	}

	if err := d.rdb.LPush(ctx, d.queueKey, payload).Err(); err != nil {
		return Job{}, spider.Definition{}, apperrors.NewPersistence("failed to enqueue job", err)
	}

	d.log.Info().
		Str("job_id", job.ID).
		Str("spider_type", string(spiderType)).
		Msg("Job enqueued")

	return job, def, nil
}
