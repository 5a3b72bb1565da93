package pool

import "errors"

var (
	// ErrPoolClosed is returned when submitting to a released pool.
	ErrPoolClosed = errors.New("pool: pool is closed")

	// ErrPoolOverload is returned by a nonblocking pool that is full.
	ErrPoolOverload = errors.New("pool: pool is overloaded")
)
