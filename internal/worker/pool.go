package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Job types.
const (
	JobShiftReport = "shift_report"
	JobEmail       = "email"
)

const (
	queueKey    = "stpark:jobs"
	maxAttempts = 3
)

// Job is the unit of background work carried through the Redis queue.
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Handler processes one job. Returning an error triggers a retry; after
// maxAttempts the job moves to the dead letter queue.
type Handler func(ctx context.Context, job Job) error

// Handlers maps job types to their handler.
type Handlers map[string]Handler

// Dispatcher pushes jobs onto the Redis-backed queue. Enqueueing is
// best-effort from the caller's perspective: callers log failures and move on,
// they never roll back business state over a queue error.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

func (d *Dispatcher) enqueue(ctx context.Context, jobType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queueKey, data).Err()
}

// EnqueueShiftReport queues rendering and mailing of a shift close report.
func (d *Dispatcher) EnqueueShiftReport(ctx context.Context, payload interface{}) error {
	return d.enqueue(ctx, JobShiftReport, payload)
}

// EnqueueEmail queues an outbound mail.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload interface{}) error {
	return d.enqueue(ctx, JobEmail, payload)
}

// StartWorkerPool launches size goroutines draining the queue until ctx is
// canceled.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, size int, handlers Handlers) {
	for i := 0; i < size; i++ {
		go workerLoop(ctx, rdb, i, handlers)
	}
	log.Info().Int("workers", size).Msg("worker pool started")
}

func workerLoop(ctx context.Context, rdb *redis.Client, id int, handlers Handlers) {
	for {
		res, err := rdb.BRPop(ctx, 5*time.Second, queueKey).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			if !errors.Is(err, redis.Nil) {
				log.Error().Err(err).Int("worker", id).Msg("queue pop failed")
				time.Sleep(time.Second)
			}
			continue
		}
		// BRPop returns [key, value]
		if len(res) != 2 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			log.Error().Err(err).Int("worker", id).Msg("malformed job dropped")
			continue
		}

		handler, ok := handlers[job.Type]
		if !ok {
			log.Error().Str("type", job.Type).Str("job_id", job.ID).Msg("no handler for job type")
			deadLetter(ctx, rdb, job, "no handler")
			continue
		}

		if err := handler(ctx, job); err != nil {
			job.Attempts++
			log.Warn().Err(err).
				Str("job_id", job.ID).
				Str("type", job.Type).
				Int("attempt", job.Attempts).
				Msg("job failed")
			if job.Attempts >= maxAttempts {
				deadLetter(ctx, rdb, job, err.Error())
				continue
			}
			if data, mErr := json.Marshal(job); mErr == nil {
				_ = rdb.LPush(ctx, queueKey, data).Err()
			}
		}
	}
}
