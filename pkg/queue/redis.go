package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/loomhq/loom/pkg/id"
	"github.com/loomhq/loom/pkg/pool"
)

// RedisConfig configures the Redis-backed queue.
type RedisConfig struct {
	// KeyPrefix namespaces the queue keys ("loom" by default).
	KeyPrefix string
	// Workers bounds concurrent job execution per consumer process.
	Workers int
	// StatusTTL is how long task status entries are retained.
	StatusTTL time.Duration
	// PopTimeout is the blocking-pop timeout per iteration.
	PopTimeout time.Duration
}

// DefaultRedisConfig returns the default Redis queue configuration.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		KeyPrefix:  "loom",
		Workers:    16,
		StatusTTL:  24 * time.Hour,
		PopTimeout: 2 * time.Second,
	}
}

// Redis is a Redis-list-backed queue. Jobs are LPUSHed onto the pending
// list and moved to a per-consumer processing list with BLMOVE, so a
// crashed consumer leaves its jobs recoverable (at-least-once delivery).
type Redis struct {
	client *goredis.Client
	config *RedisConfig
	pool   *pool.Pool
	closed atomic.Bool
}

var _ Queue = (*Redis)(nil)

// NewRedis creates a Redis-backed queue on an existing client.
func NewRedis(client *goredis.Client, config *RedisConfig) (*Redis, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	p, err := pool.New("queue-redis", &pool.Config{
		Capacity:       config.Workers,
		ExpiryDuration: 30 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &Redis{client: client, config: config, pool: p}, nil
}

func (r *Redis) pendingKey() string    { return r.config.KeyPrefix + ":jobs" }
func (r *Redis) processingKey() string { return r.config.KeyPrefix + ":jobs:processing" }
func (r *Redis) statusKey(taskID string) string {
	return fmt.Sprintf("%s:task:%s", r.config.KeyPrefix, taskID)
}

// Enqueue implements Queue.
func (r *Redis) Enqueue(ctx context.Context, job *Job) (string, error) {
	if r.closed.Load() {
		return "", ErrClosed
	}
	if job.TaskID == "" {
		job.TaskID = id.New()
	}

	body, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("queue: failed to marshal job: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.statusKey(job.TaskID), string(StatusPending), r.config.StatusTTL)
	pipe.LPush(ctx, r.pendingKey(), body)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("queue: failed to enqueue: %w", err)
	}
	return job.TaskID, nil
}

// Status implements Queue.
func (r *Redis) Status(ctx context.Context, taskID string) (Status, error) {
	val, err := r.client.Get(ctx, r.statusKey(taskID)).Result()
	if errors.Is(err, goredis.Nil) {
		return StatusUnknown, nil
	}
	if err != nil {
		return StatusUnknown, fmt.Errorf("queue: failed to read status: %w", err)
	}
	return Status(val), nil
}

// Consume implements Queue.
func (r *Redis) Consume(ctx context.Context, handler Handler) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		raw, err := r.client.BLMove(ctx, r.pendingKey(), r.processingKey(), "RIGHT", "LEFT", r.config.PopTimeout).Result()
		if errors.Is(err, goredis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warnw("queue pop failed", "error", err.Error())
			time.Sleep(time.Second)
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			logger.Errorw("dropping undecodable job", "error", err.Error())
			r.client.LRem(ctx, r.processingKey(), 1, raw)
			continue
		}

		r.setStatus(ctx, job.TaskID, StatusRunning)
		payload := raw
		j := job
		if err := r.pool.Submit(func() {
			if err := handler(ctx, &j); err != nil {
				logger.Warnw("job failed", "task_id", j.TaskID, "kind", j.Kind, "error", err.Error())
				r.setStatus(ctx, j.TaskID, StatusFailed)
			} else {
				r.setStatus(ctx, j.TaskID, StatusSucceeded)
			}
			// Ack: remove from the processing list only after the handler
			// finished, so a crash before this point leaves the job
			// recoverable.
			r.client.LRem(context.WithoutCancel(ctx), r.processingKey(), 1, payload)
		}); err != nil {
			// Pool rejected the job; push it back for another consumer.
			r.client.LMove(ctx, r.processingKey(), r.pendingKey(), "LEFT", "RIGHT")
		}
	}
}

func (r *Redis) setStatus(ctx context.Context, taskID string, s Status) {
	if err := r.client.Set(context.WithoutCancel(ctx), r.statusKey(taskID), string(s), r.config.StatusTTL).Err(); err != nil {
		logger.Warnw("failed to update task status", "task_id", taskID, "error", err.Error())
	}
}

// Recover moves orphaned jobs from the processing list back to the
// pending list. Call once at consumer startup.
func (r *Redis) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		_, err := r.client.LMove(ctx, r.processingKey(), r.pendingKey(), "RIGHT", "LEFT").Result()
		if errors.Is(err, goredis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("queue: recover failed: %w", err)
		}
		moved++
	}
}

// Close implements Queue. The Redis client itself is owned by the caller.
func (r *Redis) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.pool.Release()
	return nil
}
