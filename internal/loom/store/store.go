// Package store provides the storage layer for the Loom engine.
package store

import (
	"context"

	"github.com/loomhq/loom/internal/model"
)

// Factory defines the factory interface for creating stores.
type Factory interface {
	Collections() CollectionStore
	Documents() DocumentStore
	Transformers() TransformerStore
	Indexes() IndexStore
	Bindings() BindingStore
	Runs() RunStore
	Records() RecordStore
	AutoMigrate() error
	Close() error
}

// CollectionStore defines the collection storage interface.
type CollectionStore interface {
	Create(ctx context.Context, collection *model.Collection) error
	Update(ctx context.Context, collection *model.Collection) error
	Delete(ctx context.Context, collectionID string) error
	Get(ctx context.Context, collectionID string) (*model.Collection, error)
	List(ctx context.Context, offset, limit int) (int64, []*model.Collection, error)
}

// DocumentStore defines the document storage interface.
type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	Update(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, documentID string) error
	Get(ctx context.Context, documentID string) (*model.Document, error)
	List(ctx context.Context, collectionID string, offset, limit int) (int64, []*model.Document, error)
	// Walk iterates all documents of a collection in stable order,
	// batching reads. The callback returning false stops the walk.
	Walk(ctx context.Context, collectionID string, batchSize int, fn func(*model.Document) bool) error
}

// TransformerStore defines the transformer storage interface.
type TransformerStore interface {
	Create(ctx context.Context, t *model.Transformer) error
	Update(ctx context.Context, t *model.Transformer) error
	Delete(ctx context.Context, transformerID string) error
	Get(ctx context.Context, transformerID string) (*model.Transformer, error)
	List(ctx context.Context, offset, limit int) (int64, []*model.Transformer, error)
}

// IndexStore defines the index storage interface. Create also creates
// the index's physical record table.
type IndexStore interface {
	Create(ctx context.Context, idx *model.Index) error
	Delete(ctx context.Context, indexID string) error
	Get(ctx context.Context, indexID string) (*model.Index, error)
	List(ctx context.Context, offset, limit int) (int64, []*model.Index, error)
}

// BindingStore defines the binding storage interface.
type BindingStore interface {
	Create(ctx context.Context, b *model.Binding) error
	Update(ctx context.Context, b *model.Binding) error
	UpdateStatus(ctx context.Context, bindingID int64, status string) error
	Delete(ctx context.Context, bindingID int64) error
	Get(ctx context.Context, bindingID int64) (*model.Binding, error)
	List(ctx context.Context, collectionID string, offset, limit int) (int64, []*model.Binding, error)
	// ListActive returns ON and PENDING bindings for a collection.
	ListActive(ctx context.Context, collectionID string) ([]*model.Binding, error)
}

// RunStore defines storage for binding run fencing markers.
type RunStore interface {
	// MarkScheduled records that a run at version was scheduled for
	// the pair. It returns false without writing when a marker with a
	// newer version already exists.
	MarkScheduled(ctx context.Context, documentID string, bindingID int64, version int64, taskID string) (bool, error)
	// SetState updates the run state for the pair at the given
	// version, leaving newer markers untouched.
	SetState(ctx context.Context, documentID string, bindingID int64, version int64, state, errMsg, stack string) error
	Get(ctx context.Context, documentID string, bindingID int64) (*model.BindingRun, error)
	// CountPending returns how many runs for the binding are still
	// scheduled.
	CountPending(ctx context.Context, bindingID int64) (int64, error)
	DeleteByBinding(ctx context.Context, bindingID int64) error
	DeleteByDocument(ctx context.Context, documentID string) error
}

// RecordStore defines storage for per-index record tables.
type RecordStore interface {
	// Commit transactionally replaces the records for a
	// (document, binding) pair in the index table. It re-reads the
	// binding status and the fencing marker inside the transaction:
	// an OFF or DETACHED binding returns ErrBindingOff, a marker with
	// a newer version returns ErrStaleCommit, and neither writes
	// records.
	Commit(ctx context.Context, idx *model.Index, bindingID int64, documentID string, version int64, taskID string, drafts []*model.RecordDraft) error
	List(ctx context.Context, idx *model.Index, documentID string, bindingID int64, offset, limit int) (int64, []*model.IndexRecord, error)
	// DeletePair removes the records for one (document, binding) pair.
	DeletePair(ctx context.Context, idx *model.Index, documentID string, bindingID int64) error
	DeleteByBinding(ctx context.Context, idx *model.Index, bindingID int64) error
	DeleteByDocument(ctx context.Context, idx *model.Index, documentID string) error
}
