package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_Submit(t *testing.T) {
	p, err := New("test", &Config{Capacity: 4, ExpiryDuration: time.Second})
	require.NoError(t, err)
	defer p.Release()

	var n atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			n.Add(1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int64(50), n.Load())
	stats := p.Stats()
	assert.Equal(t, int64(50), stats.Submitted)
	assert.Equal(t, int64(50), stats.Completed)
	assert.Equal(t, int64(0), stats.Failed)
}

func TestPool_SubmitAfterRelease(t *testing.T) {
	p, err := New("test", nil)
	require.NoError(t, err)
	p.Release()

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
}

func TestPool_NonblockingOverload(t *testing.T) {
	p, err := New("test", &Config{Capacity: 1, ExpiryDuration: time.Second, Nonblocking: true})
	require.NoError(t, err)
	defer p.Release()

	block := make(chan struct{})
	require.NoError(t, p.Submit(func() { <-block }))

	// Pool is saturated; a nonblocking submit must be rejected.
	var rejected bool
	for i := 0; i < 10; i++ {
		if err := p.Submit(func() {}); err == ErrPoolOverload {
			rejected = true
			break
		}
		time.Sleep(time.Millisecond)
	}
	close(block)
	assert.True(t, rejected)
}

func TestPool_SubmitWithContext_Cancelled(t *testing.T) {
	p, err := New("test", nil)
	require.NoError(t, err)
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.SubmitWithContext(ctx, func() {
		t.Fatal("task must not run")
	}), context.Canceled)
}

func TestPool_PanicRecovered(t *testing.T) {
	var recovered atomic.Bool
	p, err := New("test", &Config{
		Capacity:       2,
		ExpiryDuration: time.Second,
		PanicHandler:   func(interface{}) { recovered.Store(true) },
	})
	require.NoError(t, err)
	defer p.Release()

	require.NoError(t, p.Submit(func() { panic("boom") }))

	assert.Eventually(t, recovered.Load, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return p.Stats().Panics == 1 }, time.Second, 5*time.Millisecond)
}
