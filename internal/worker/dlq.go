package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const dlqKey = "stpark:jobs:dead"

// DeadJob wraps an exhausted job together with its failure reason.
type DeadJob struct {
	Job      Job       `json:"job"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

func deadLetter(ctx context.Context, rdb *redis.Client, job Job, reason string) {
	entry := DeadJob{Job: job, Reason: reason, FailedAt: time.Now().UTC()}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("failed to dead-letter job")
		return
	}
	log.Error().Str("job_id", job.ID).Str("type", job.Type).Str("reason", reason).Msg("job dead-lettered")
}

// DeadJobs lists up to limit entries from the dead letter queue, newest first.
func (d *Dispatcher) DeadJobs(ctx context.Context, limit int64) ([]DeadJob, error) {
	raw, err := d.rdb.LRange(ctx, dlqKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DeadJob, 0, len(raw))
	for _, item := range raw {
		var entry DeadJob
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// RequeueDead moves up to n dead jobs back to the work queue with their
// attempt counter reset.
func (d *Dispatcher) RequeueDead(ctx context.Context, n int) (int, error) {
	moved := 0
	for i := 0; i < n; i++ {
		raw, err := d.rdb.RPop(ctx, dlqKey).Result()
		if err != nil {
			break
		}
		var entry DeadJob
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entry.Job.Attempts = 0
		data, err := json.Marshal(entry.Job)
		if err != nil {
			continue
		}
		if err := d.rdb.LPush(ctx, queueKey, data).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}
