// Package queue provides the asynchronous job queue boundary.
//
// Two implementations are provided: a Redis-backed queue for multi-worker
// deployments (at-least-once delivery via a processing list) and an
// in-process queue for tests and single-node mode. Consumers must be
// idempotent; the engine relies on commit-time version fencing, not on
// exactly-once delivery.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/loomhq/loom/pkg/id"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusUnknown   Status = "unknown"
)

// Job is one unit of queued work.
type Job struct {
	// TaskID uniquely identifies this submission. Assigned by Enqueue when
	// empty.
	TaskID string `json:"task_id"`

	// Kind routes the job to a handler ("transform", "cleanup", ...).
	Kind string `json:"kind"`

	// Payload is the kind-specific JSON body.
	Payload json.RawMessage `json:"payload"`
}

// NewJob builds a Job with a fresh task id, marshaling payload to JSON.
func NewJob(kind string, payload interface{}) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("queue: failed to marshal payload: %w", err)
	}
	return &Job{TaskID: id.New(), Kind: kind, Payload: body}, nil
}

// Handler processes one job. A non-nil error marks the task failed; retry
// policy is the handler's own responsibility.
type Handler func(ctx context.Context, job *Job) error

// Queue is the job queue contract consumed by the task execution adapter.
type Queue interface {
	// Enqueue submits a job and returns its task id. It never blocks on
	// job execution.
	Enqueue(ctx context.Context, job *Job) (string, error)

	// Status reports the last known state of a task. Implementations may
	// return StatusUnknown for ids they no longer track.
	Status(ctx context.Context, taskID string) (Status, error)

	// Consume delivers jobs to handler until ctx is cancelled. It blocks
	// the calling goroutine.
	Consume(ctx context.Context, handler Handler) error

	// Close releases queue resources. Pending jobs are not drained.
	Close() error
}

// ErrClosed is returned when enqueuing to a closed queue.
var ErrClosed = errors.New("queue: queue is closed")
