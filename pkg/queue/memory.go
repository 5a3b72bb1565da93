package queue

import (
	"context"
	"sync"

	"github.com/kart-io/logger"

	"github.com/loomhq/loom/pkg/id"
	"github.com/loomhq/loom/pkg/pool"
)

// Memory is an in-process queue backed by a worker pool. Jobs enqueued
// before Consume is called wait in a buffered channel.
type Memory struct {
	jobs   chan *Job
	pool   *pool.Pool
	mu     sync.RWMutex
	status map[string]Status
	closed bool
}

var _ Queue = (*Memory)(nil)

// NewMemory creates an in-process queue. workers bounds concurrent job
// execution; buffer bounds enqueued-but-unconsumed jobs.
func NewMemory(workers, buffer int) (*Memory, error) {
	p, err := pool.New("queue", &pool.Config{Capacity: workers, ExpiryDuration: pool.DefaultConfig().ExpiryDuration})
	if err != nil {
		return nil, err
	}
	return &Memory{
		jobs:   make(chan *Job, buffer),
		pool:   p,
		status: make(map[string]Status),
	}, nil
}

// Enqueue implements Queue.
func (m *Memory) Enqueue(ctx context.Context, job *Job) (string, error) {
	if job.TaskID == "" {
		job.TaskID = id.New()
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrClosed
	}
	m.status[job.TaskID] = StatusPending
	m.mu.Unlock()

	select {
	case m.jobs <- job:
		return job.TaskID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Status implements Queue.
func (m *Memory) Status(_ context.Context, taskID string) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.status[taskID]; ok {
		return s, nil
	}
	return StatusUnknown, nil
}

// Consume implements Queue.
func (m *Memory) Consume(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok := <-m.jobs:
			if !ok {
				return nil
			}
			m.setStatus(job.TaskID, StatusRunning)
			j := job
			if err := m.pool.Submit(func() {
				if err := handler(ctx, j); err != nil {
					logger.Warnw("job failed", "task_id", j.TaskID, "kind", j.Kind, "error", err.Error())
					m.setStatus(j.TaskID, StatusFailed)
					return
				}
				m.setStatus(j.TaskID, StatusSucceeded)
			}); err != nil {
				m.setStatus(j.TaskID, StatusFailed)
			}
		}
	}
}

func (m *Memory) setStatus(taskID string, s Status) {
	m.mu.Lock()
	m.status[taskID] = s
	m.mu.Unlock()
}

// Close implements Queue.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.jobs)
	m.pool.Release()
	return nil
}
