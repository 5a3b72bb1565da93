package biz

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/kart-io/logger"
	"gorm.io/gorm"

	"github.com/loomhq/loom/internal/loom/store"
	"github.com/loomhq/loom/internal/model"
	"github.com/loomhq/loom/pkg/errors"
	"github.com/loomhq/loom/pkg/id"
)

// Resolver turns document events into binding runs and executes them:
// filter, transform, map, commit. Commits are fenced by the document
// version recorded at schedule time, so replayed or reordered runs
// never clobber newer results.
type Resolver struct {
	store    store.Factory
	registry *Registry
	executor *Executor

	// onSettled fires after a run reaches a terminal state. The
	// reconciler uses it to detect backfill completion.
	onSettled func(ctx context.Context, bindingID int64)
}

// NewResolver creates a resolver.
func NewResolver(f store.Factory, registry *Registry, executor *Executor) *Resolver {
	return &Resolver{store: f, registry: registry, executor: executor}
}

// SetOnSettled registers the run-settled callback. Must be called
// before Start.
func (r *Resolver) SetOnSettled(fn func(ctx context.Context, bindingID int64)) {
	r.onSettled = fn
}

// Start begins consuming binding runs.
func (r *Resolver) Start(ctx context.Context) error {
	return r.executor.Start(ctx, r)
}

func (r *Resolver) settled(ctx context.Context, bindingID int64) {
	if r.onSettled != nil {
		r.onSettled(ctx, bindingID)
	}
}

// DocumentChanged resolves a created or updated document against the
// active bindings of its collection.
func (r *Resolver) DocumentChanged(ctx context.Context, doc *model.Document) error {
	bindings, err := r.store.Bindings().ListActive(ctx, doc.CollectionID)
	if err != nil {
		return err
	}

	for _, binding := range bindings {
		if EvaluateFilter(binding.Filter, doc) {
			if err := r.ScheduleRun(ctx, binding, doc); err != nil {
				return err
			}
			continue
		}
		// The document no longer matches: if an earlier version
		// produced records, remove them and mark the pair skipped.
		if err := r.unmatch(ctx, binding, doc); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleRun writes the fencing marker and enqueues a run for the
// pair. A marker at a newer version makes the schedule a no-op.
func (r *Resolver) ScheduleRun(ctx context.Context, binding *model.Binding, doc *model.Document) error {
	taskID := id.New()
	version := doc.Version()

	ok, err := r.store.Runs().MarkScheduled(ctx, doc.DocumentID, binding.BindingID, version, taskID)
	if err != nil {
		return err
	}
	if !ok {
		logger.Infow("run already scheduled at newer version, skipping",
			"document_id", doc.DocumentID, "binding_id", binding.BindingID, "version", version)
		return nil
	}

	return r.executor.Submit(ctx, &RunPayload{
		TaskID:     taskID,
		DocumentID: doc.DocumentID,
		BindingID:  binding.BindingID,
		Version:    version,
	})
}

func (r *Resolver) unmatch(ctx context.Context, binding *model.Binding, doc *model.Document) error {
	run, err := r.store.Runs().Get(ctx, doc.DocumentID, binding.BindingID)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if run.State == model.RunStateSkipped && run.Version >= doc.Version() {
		return nil
	}

	idx, err := r.store.Indexes().Get(ctx, binding.IndexID)
	if err != nil {
		return err
	}
	if err := r.store.Records().DeletePair(ctx, idx, doc.DocumentID, binding.BindingID); err != nil {
		return err
	}
	return r.store.Runs().SetState(ctx, doc.DocumentID, binding.BindingID, doc.Version(),
		model.RunStateSkipped, "", "")
}

// ExecuteRun performs one binding run attempt. It always works against
// the current document; the payload version only identifies the
// schedule that produced the job.
func (r *Resolver) ExecuteRun(ctx context.Context, p *RunPayload) error {
	binding, err := r.store.Bindings().Get(ctx, p.BindingID)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if binding.Status == model.BindingStatusOff || binding.Status == model.BindingStatusDetached {
		return nil
	}

	doc, err := r.store.Documents().Get(ctx, p.DocumentID)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		// Deleted mid-flight; document cleanup owns the records.
		return nil
	}
	if err != nil {
		return err
	}
	version := doc.Version()

	if !EvaluateFilter(binding.Filter, doc) {
		if err := r.unmatch(ctx, binding, doc); err != nil {
			return err
		}
		r.settled(ctx, binding.BindingID)
		return nil
	}

	output, err := r.registry.Invoke(ctx, binding.TransformerID, doc, binding.TransformerParams)
	if err != nil {
		return err
	}

	idx, err := r.store.Indexes().Get(ctx, binding.IndexID)
	if err != nil {
		return err
	}
	drafts := MapOutput(binding, idx, doc.DocumentID, output)

	// A non-empty output whose drafts are all invalid is a terminal
	// failure; the previous record set stays in place.
	if len(output.Records) > 0 {
		valid := 0
		var reasons []string
		for _, draft := range drafts {
			if draft.Invalid {
				reasons = append(reasons, draft.Reason)
			} else {
				valid++
			}
		}
		if valid == 0 {
			msg := "no valid records: " + strings.Join(reasons, "; ")
			if err := r.store.Runs().SetState(ctx, doc.DocumentID, binding.BindingID, version,
				model.RunStateFailed, msg, ""); err != nil {
				return err
			}
			logger.Errorw("mapping produced no valid records",
				"document_id", doc.DocumentID, "binding_id", binding.BindingID, "error", msg)
			r.settled(ctx, binding.BindingID)
			return nil
		}
	}

	err = r.store.Records().Commit(ctx, idx, binding.BindingID, doc.DocumentID, version, p.TaskID, drafts)
	switch {
	case stderrors.Is(err, errors.ErrStaleCommit):
		// A newer version was scheduled while this run executed.
		// The commit is discarded; re-resolve with the current
		// document.
		logger.Infow("stale commit rejected, re-running",
			"document_id", doc.DocumentID, "binding_id", binding.BindingID, "version", version)
		current, err := r.store.Documents().Get(ctx, p.DocumentID)
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return r.ScheduleRun(ctx, binding, current)
	case stderrors.Is(err, errors.ErrDocumentGone):
		// Deleted mid-flight; document cleanup removed the records and
		// the marker, so the result is simply discarded.
		logger.Infow("document deleted at commit time, result discarded",
			"document_id", doc.DocumentID, "binding_id", binding.BindingID)
		r.settled(ctx, binding.BindingID)
		return nil
	case stderrors.Is(err, errors.ErrBindingOff):
		// The binding went OFF mid-flight; discard the result.
		logger.Infow("binding off at commit time, result discarded",
			"document_id", doc.DocumentID, "binding_id", binding.BindingID)
		return nil
	case err != nil:
		return err
	}

	r.settled(ctx, binding.BindingID)
	return nil
}

// RunFailed records a terminal failure after retries exhaust.
func (r *Resolver) RunFailed(ctx context.Context, p *RunPayload, runErr error) {
	var stack string
	var invErr *InvocationError
	if stderrors.As(runErr, &invErr) {
		stack = invErr.Stack
	}

	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	if err := r.store.Runs().SetState(ctx, p.DocumentID, p.BindingID, p.Version,
		model.RunStateFailed, msg, stack); err != nil {
		logger.Errorw("failed to record run failure",
			"document_id", p.DocumentID, "binding_id", p.BindingID, "error", err.Error())
	}
	logger.Errorw("binding run failed terminally",
		"document_id", p.DocumentID, "binding_id", p.BindingID, "error", msg)
	r.settled(ctx, p.BindingID)
}

// RunSync invokes a transformer synchronously without committing any
// records, for the test-transformer path.
func (r *Resolver) RunSync(ctx context.Context, transformerID string, doc *model.Document, params model.JSONMap) *model.TransformResult {
	output, elapsed, err := r.registry.InvokeTimed(ctx, transformerID, doc, params)
	result := &model.TransformResult{
		TransformerID: transformerID,
		DocumentID:    doc.DocumentID,
		Output:        output,
		DurationMS:    elapsed.Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}
