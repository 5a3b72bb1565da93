package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *goredis.Client {
	client := goredis.NewClient(&goredis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("redis not available, skipping")
	}
	client.FlushDB(ctx)
	return client
}

func TestRedis_EnqueueAndConsume(t *testing.T) {
	client := setupTestRedis(t)
	defer func() { _ = client.Close() }()

	q, err := NewRedis(client, &RedisConfig{
		KeyPrefix:  "loomtest",
		Workers:    4,
		StatusTTL:  time.Minute,
		PopTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handled atomic.Int64
	go func() {
		_ = q.Consume(ctx, func(_ context.Context, job *Job) error {
			handled.Add(1)
			return nil
		})
	}()

	job, err := NewJob("transform", map[string]string{"document_id": "d1"})
	require.NoError(t, err)
	taskID, err := q.Enqueue(ctx, job)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return handled.Load() == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		s, _ := q.Status(ctx, taskID)
		return s == StatusSucceeded
	}, 3*time.Second, 10*time.Millisecond)

	// Processing list must be empty after the ack.
	assert.Eventually(t, func() bool {
		n, _ := client.LLen(ctx, "loomtest:jobs:processing").Result()
		return n == 0
	}, 3*time.Second, 10*time.Millisecond)
}

func TestRedis_Recover(t *testing.T) {
	client := setupTestRedis(t)
	defer func() { _ = client.Close() }()

	q, err := NewRedis(client, &RedisConfig{
		KeyPrefix:  "loomtest",
		Workers:    1,
		StatusTTL:  time.Minute,
		PopTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	defer q.Close()

	ctx := context.Background()

	// Simulate a crashed consumer that left jobs in the processing list.
	require.NoError(t, client.LPush(ctx, "loomtest:jobs:processing", `{"task_id":"x","kind":"transform"}`).Err())

	moved, err := q.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	n, err := client.LLen(ctx, "loomtest:jobs").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
