package biz

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kart-io/logger"

	"github.com/loomhq/loom/pkg/queue"
)

// JobKindBindingRun is the queue job kind for binding runs.
const JobKindBindingRun = "binding_run"

// RunPayload is the queued job payload for one binding run. TaskID is
// minted before the fencing marker is written, so the marker and the
// queued job always agree.
type RunPayload struct {
	TaskID     string `json:"task_id"`
	DocumentID string `json:"document_id"`
	BindingID  int64  `json:"binding_id"`
	Version    int64  `json:"version"`
}

// Runner executes binding runs on behalf of the executor.
type Runner interface {
	// ExecuteRun performs one run attempt. Stale commits and OFF
	// bindings are resolved inside and do not surface as errors.
	ExecuteRun(ctx context.Context, p *RunPayload) error
	// RunFailed records a terminal failure after retries exhaust.
	RunFailed(ctx context.Context, p *RunPayload, err error)
}

// ExecutorConfig configures retry behavior.
type ExecutorConfig struct {
	// MaxAttempts bounds run attempts per delivery.
	MaxAttempts int
	// BaseBackoff is the first retry delay; subsequent delays double.
	BaseBackoff time.Duration
}

// DefaultExecutorConfig returns the default executor configuration.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxAttempts: 3,
		BaseBackoff: 200 * time.Millisecond,
	}
}

// Executor adapts the engine onto the job queue: it submits binding
// runs and consumes them with bounded, backed-off retries. Delivery is
// at least once; commit fencing makes re-execution safe.
type Executor struct {
	queue queue.Queue
	cfg   ExecutorConfig
}

// NewExecutor creates an executor over the queue.
func NewExecutor(q queue.Queue, cfg ExecutorConfig) *Executor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 200 * time.Millisecond
	}
	return &Executor{queue: q, cfg: cfg}
}

// Start begins consuming binding run jobs with the given runner.
func (e *Executor) Start(ctx context.Context, runner Runner) error {
	return e.queue.Consume(ctx, func(ctx context.Context, job *queue.Job) error {
		var payload RunPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			logger.Errorw("undecodable binding run job, dropping",
				"task_id", job.TaskID, "error", err.Error())
			return err
		}
		return e.runWithRetry(ctx, runner, &payload)
	})
}

func (e *Executor) runWithRetry(ctx context.Context, runner Runner, p *RunPayload) error {
	var err error
	backoff := e.cfg.BaseBackoff
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		err = runner.ExecuteRun(ctx, p)
		if err == nil {
			return nil
		}
		logger.Warnw("binding run attempt failed",
			"document_id", p.DocumentID,
			"binding_id", p.BindingID,
			"attempt", attempt,
			"error", err.Error(),
		)
		if attempt == e.cfg.MaxAttempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	runner.RunFailed(ctx, p, err)
	return err
}

// Submit enqueues a single binding run. The payload's TaskID must be
// set.
func (e *Executor) Submit(ctx context.Context, p *RunPayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = e.queue.Enqueue(ctx, &queue.Job{
		TaskID:  p.TaskID,
		Kind:    JobKindBindingRun,
		Payload: data,
	})
	return err
}

// SubmitBatch enqueues runs for a backfill and returns how many were
// scheduled. It returns immediately; completion is observed through
// run states.
func (e *Executor) SubmitBatch(ctx context.Context, runs []*RunPayload) (int, error) {
	scheduled := 0
	for _, p := range runs {
		if err := e.Submit(ctx, p); err != nil {
			return scheduled, err
		}
		scheduled++
	}
	return scheduled, nil
}

// Status reports the queue status for a task id.
func (e *Executor) Status(ctx context.Context, taskID string) (queue.Status, error) {
	return e.queue.Status(ctx, taskID)
}
