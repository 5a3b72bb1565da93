package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_EnqueueAndConsume(t *testing.T) {
	q, err := NewMemory(4, 64)
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

	var ids []string
	for i := 0; i < 10; i++ {
		job, err := NewJob("transform", map[string]int{"n": i})
		require.NoError(t, err)
		taskID, err := q.Enqueue(ctx, job)
		require.NoError(t, err)
		ids = append(ids, taskID)
	}

	assert.Eventually(t, func() bool { return handled.Load() == 10 }, 2*time.Second, 5*time.Millisecond)

	for _, taskID := range ids {
		assert.Eventually(t, func() bool {
			s, err := q.Status(ctx, taskID)
			return err == nil && s == StatusSucceeded
		}, time.Second, 5*time.Millisecond)
	}
}

func TestMemory_FailedJobStatus(t *testing.T) {
	q, err := NewMemory(1, 8)
	require.NoError(t, err)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = q.Consume(ctx, func(_ context.Context, job *Job) error {
			return assert.AnError
		})
	}()

	job, err := NewJob("transform", nil)
	require.NoError(t, err)
	taskID, err := q.Enqueue(ctx, job)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		s, _ := q.Status(ctx, taskID)
		return s == StatusFailed
	}, time.Second, 5*time.Millisecond)
}

func TestMemory_EnqueueAfterClose(t *testing.T) {
	q, err := NewMemory(1, 1)
	require.NoError(t, err)
	require.NoError(t, q.Close())

	job, err := NewJob("transform", nil)
	require.NoError(t, err)
	_, err = q.Enqueue(context.Background(), job)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemory_UnknownStatus(t *testing.T) {
	q, err := NewMemory(1, 1)
	require.NoError(t, err)
	defer q.Close()

	s, err := q.Status(context.Background(), "no-such-task")
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, s)
}
