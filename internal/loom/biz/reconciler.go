package biz

import (
	"context"
	stderrors "errors"

	"github.com/kart-io/logger"
	"gorm.io/gorm"

	"github.com/loomhq/loom/internal/loom/store"
	"github.com/loomhq/loom/internal/model"
	"github.com/loomhq/loom/pkg/id"
)

// Reconciler keeps indexes consistent with the catalog: it backfills
// new bindings over existing documents, and removes records when
// bindings or documents go away. No record may outlive its document or
// its binding.
type Reconciler struct {
	store    store.Factory
	executor *Executor

	// walkBatch is the document batch size for backfill walks.
	walkBatch int
}

// NewReconciler creates a reconciler.
func NewReconciler(f store.Factory, executor *Executor) *Reconciler {
	return &Reconciler{store: f, executor: executor, walkBatch: 200}
}

// Backfill schedules runs for every filter-matching document in the
// binding's collection and returns the scheduled count immediately.
// The binding stays PENDING until the scheduled runs settle; RunSettled
// flips it ON. A binding whose collection has no matching documents
// goes ON at once.
func (rc *Reconciler) Backfill(ctx context.Context, binding *model.Binding) (int, error) {
	scheduled := 0
	var walkErr error

	err := rc.store.Documents().Walk(ctx, binding.CollectionID, rc.walkBatch, func(doc *model.Document) bool {
		if !EvaluateFilter(binding.Filter, doc) {
			return true
		}
		taskID := id.New()
		ok, err := rc.store.Runs().MarkScheduled(ctx, doc.DocumentID, binding.BindingID, doc.Version(), taskID)
		if err != nil {
			walkErr = err
			return false
		}
		if !ok {
			return true
		}
		if err := rc.executor.Submit(ctx, &RunPayload{
			TaskID:     taskID,
			DocumentID: doc.DocumentID,
			BindingID:  binding.BindingID,
			Version:    doc.Version(),
		}); err != nil {
			walkErr = err
			return false
		}
		scheduled++
		return true
	})
	if err == nil {
		err = walkErr
	}
	if err != nil {
		return scheduled, err
	}

	logger.Infow("backfill scheduled",
		"binding_id", binding.BindingID,
		"collection_id", binding.CollectionID,
		"scheduled", scheduled,
	)

	if scheduled == 0 {
		return 0, rc.store.Bindings().UpdateStatus(ctx, binding.BindingID, model.BindingStatusOn)
	}
	return scheduled, nil
}

// RunSettled is the resolver's settled callback: when a PENDING
// binding has no scheduled runs left, it goes ON.
func (rc *Reconciler) RunSettled(ctx context.Context, bindingID int64) {
	binding, err := rc.store.Bindings().Get(ctx, bindingID)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return
	}
	if err != nil {
		logger.Errorw("failed to check backfill completion",
			"binding_id", bindingID, "error", err.Error())
		return
	}
	if binding.Status != model.BindingStatusPending {
		return
	}

	pending, err := rc.store.Runs().CountPending(ctx, bindingID)
	if err != nil {
		logger.Errorw("failed to count pending runs",
			"binding_id", bindingID, "error", err.Error())
		return
	}
	if pending > 0 {
		return
	}

	if err := rc.store.Bindings().UpdateStatus(ctx, bindingID, model.BindingStatusOn); err != nil {
		logger.Errorw("failed to activate binding",
			"binding_id", bindingID, "error", err.Error())
		return
	}
	logger.Infow("backfill complete, binding on", "binding_id", bindingID)
}

// Cleanup removes every record and run marker keyed to the binding.
// Called synchronously on binding delete.
func (rc *Reconciler) Cleanup(ctx context.Context, binding *model.Binding) error {
	idx, err := rc.store.Indexes().Get(ctx, binding.IndexID)
	switch {
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		// Index already dropped; only markers remain.
	case err != nil:
		return err
	default:
		if err := rc.store.Records().DeleteByBinding(ctx, idx, binding.BindingID); err != nil {
			return err
		}
	}
	return rc.store.Runs().DeleteByBinding(ctx, binding.BindingID)
}

// CleanupDocument removes a deleted document's records from every
// index, plus its run markers.
func (rc *Reconciler) CleanupDocument(ctx context.Context, documentID string) error {
	const page = 100
	offset := 0
	for {
		_, indexes, err := rc.store.Indexes().List(ctx, offset, page)
		if err != nil {
			return err
		}
		if len(indexes) == 0 {
			break
		}
		for _, idx := range indexes {
			if err := rc.store.Records().DeleteByDocument(ctx, idx, documentID); err != nil {
				return err
			}
		}
		if len(indexes) < page {
			break
		}
		offset += page
	}
	return rc.store.Runs().DeleteByDocument(ctx, documentID)
}
