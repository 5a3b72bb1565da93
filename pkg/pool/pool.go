// Package pool wraps ants with task statistics and panic recovery.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// Config defines the configuration for a worker pool.
type Config struct {
	// Capacity is the maximum number of concurrent goroutines.
	Capacity int
	// ExpiryDuration is how long an idle worker lives before being reclaimed.
	ExpiryDuration time.Duration
	// Nonblocking makes Submit return ErrPoolOverload when the pool is full
	// instead of blocking the caller.
	Nonblocking bool
	// MaxBlockingTasks caps queued submitters when Nonblocking is false
	// (0 means unlimited).
	MaxBlockingTasks int
	// PanicHandler is invoked when a task panics.
	PanicHandler func(interface{})
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() *Config {
	return &Config{
		Capacity:       256,
		ExpiryDuration: 10 * time.Second,
	}
}

// Pool is a bounded worker pool.
type Pool struct {
	name   string
	pool   *ants.Pool
	config *Config
	stats  statsCounter
	closed atomic.Bool
	mu     sync.Mutex
}

type statsCounter struct {
	Submitted atomic.Int64
	Completed atomic.Int64
	Failed    atomic.Int64
	Rejected  atomic.Int64
	Panics    atomic.Int64
}

// Stats is a snapshot of pool statistics.
type Stats struct {
	Submitted int64
	Completed int64
	Failed    int64
	Rejected  int64
	Panics    int64
}

// New creates a new worker pool.
func New(name string, config *Config) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}

	p := &Pool{
		name:   name,
		config: config,
	}

	opts := []ants.Option{
		ants.WithExpiryDuration(config.ExpiryDuration),
		ants.WithNonblocking(config.Nonblocking),
		ants.WithMaxBlockingTasks(config.MaxBlockingTasks),
	}
	if config.PanicHandler != nil {
		opts = append(opts, ants.WithPanicHandler(config.PanicHandler))
	} else {
		opts = append(opts, ants.WithPanicHandler(func(r interface{}) {
			logger.Errorw("worker panic recovered", "pool", name, "panic", r)
		}))
	}

	pool, err := ants.NewPool(config.Capacity, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}
	p.pool = pool

	logger.Infow("worker pool created", "name", name, "capacity", config.Capacity)
	return p, nil
}

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// Cap returns the pool capacity.
func (p *Pool) Cap() int { return p.pool.Cap() }

// Running returns the number of running workers.
func (p *Pool) Running() int { return p.pool.Running() }

// Free returns the number of available workers.
func (p *Pool) Free() int { return p.pool.Free() }

// Waiting returns the number of queued tasks.
func (p *Pool) Waiting() int { return p.pool.Waiting() }

// Submit submits a task for execution.
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	err := p.pool.Submit(func() {
		p.stats.Submitted.Add(1)
		defer func() {
			if r := recover(); r != nil {
				p.stats.Panics.Add(1)
				p.stats.Failed.Add(1)
				// Re-panic so the ants panic handler sees it.
				panic(r)
			}
			p.stats.Completed.Add(1)
		}()
		task()
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			p.stats.Rejected.Add(1)
			return ErrPoolOverload
		}
		p.stats.Failed.Add(1)
		return err
	}
	return nil
}

// SubmitWithContext submits a task that is skipped if ctx is cancelled
// before it starts.
func (p *Pool) SubmitWithContext(ctx context.Context, task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return p.Submit(func() {
		select {
		case <-ctx.Done():
			return
		default:
			task()
		}
	})
}

// Release shuts the pool down without waiting for running tasks.
func (p *Pool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Swap(true) {
		return
	}
	p.pool.Release()
	logger.Infow("worker pool released", "name", p.name)
}

// ReleaseTimeout shuts the pool down, waiting up to timeout for running
// tasks to finish.
func (p *Pool) ReleaseTimeout(timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Swap(true) {
		return nil
	}
	return p.pool.ReleaseTimeout(timeout)
}

// Tune adjusts the pool capacity at runtime.
func (p *Pool) Tune(size int) {
	p.pool.Tune(size)
	p.config.Capacity = size
}

// Stats returns a snapshot of pool statistics.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.stats.Submitted.Load(),
		Completed: p.stats.Completed.Load(),
		Failed:    p.stats.Failed.Load(),
		Rejected:  p.stats.Rejected.Load(),
		Panics:    p.stats.Panics.Load(),
	}
}
