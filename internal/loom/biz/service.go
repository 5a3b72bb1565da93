package biz

import (
	"context"
	stderrors "errors"

	"github.com/kart-io/logger"
	"gorm.io/gorm"

	"github.com/loomhq/loom/internal/loom/store"
	"github.com/loomhq/loom/internal/model"
	"github.com/loomhq/loom/pkg/errors"
	"github.com/loomhq/loom/pkg/id"
	"github.com/loomhq/loom/pkg/queue"
)

// Service is the engine facade consumed by the HTTP handlers. It owns
// catalog validation, emits document events into the resolver, and
// drives binding lifecycle transitions through the reconciler.
type Service struct {
	store      store.Factory
	registry   *Registry
	executor   *Executor
	resolver   *Resolver
	reconciler *Reconciler
}

// NewService wires the engine together over a store and a queue.
func NewService(f store.Factory, registry *Registry, q queue.Queue, cfg ExecutorConfig) *Service {
	executor := NewExecutor(q, cfg)
	resolver := NewResolver(f, registry, executor)
	reconciler := NewReconciler(f, executor)
	resolver.SetOnSettled(reconciler.RunSettled)

	return &Service{
		store:      f,
		registry:   registry,
		executor:   executor,
		resolver:   resolver,
		reconciler: reconciler,
	}
}

// Start begins consuming binding runs. It blocks until ctx is
// cancelled.
func (s *Service) Start(ctx context.Context) error {
	return s.resolver.Start(ctx)
}

// Registry returns the transformer registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

func notFoundOr(err error, e *errors.Errno, format string, args ...any) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return e.WithMessagef(format, args...)
	}
	return errors.ErrDatabase.WithCause(err)
}

// --- Collections ---

// CreateCollection creates a collection.
func (s *Service) CreateCollection(ctx context.Context, c *model.Collection) error {
	if c.CollectionID == "" {
		return errors.ErrInvalidParam.WithMessage("collection_id must not be empty")
	}
	if _, err := s.store.Collections().Get(ctx, c.CollectionID); err == nil {
		return errors.ErrAlreadyExists.WithMessagef("collection %s already exists", c.CollectionID)
	}
	if err := s.store.Collections().Create(ctx, c); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

// GetCollection retrieves a collection.
func (s *Service) GetCollection(ctx context.Context, collectionID string) (*model.Collection, error) {
	c, err := s.store.Collections().Get(ctx, collectionID)
	if err != nil {
		return nil, notFoundOr(err, errors.ErrNotFound, "collection %s not found", collectionID)
	}
	return c, nil
}

// ListCollections lists collections.
func (s *Service) ListCollections(ctx context.Context, offset, limit int) (*model.CollectionList, error) {
	count, items, err := s.store.Collections().List(ctx, offset, limit)
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return &model.CollectionList{TotalCount: count, Items: items}, nil
}

// UpdateCollection updates a collection's description and config.
func (s *Service) UpdateCollection(ctx context.Context, c *model.Collection) error {
	existing, err := s.GetCollection(ctx, c.CollectionID)
	if err != nil {
		return err
	}
	existing.Description = c.Description
	if c.Config != nil {
		existing.Config = c.Config
	}
	if err := s.store.Collections().Update(ctx, existing); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

// DeleteCollection deletes a collection, its documents, and all their
// records.
func (s *Service) DeleteCollection(ctx context.Context, collectionID string) error {
	if _, err := s.GetCollection(ctx, collectionID); err != nil {
		return err
	}

	var docIDs []string
	err := s.store.Documents().Walk(ctx, collectionID, 500, func(doc *model.Document) bool {
		docIDs = append(docIDs, doc.DocumentID)
		return true
	})
	if err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	for _, docID := range docIDs {
		if err := s.DeleteDocument(ctx, docID); err != nil {
			return err
		}
	}

	if err := s.store.Collections().Delete(ctx, collectionID); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

// --- Documents ---

// CreateDocument stores a document and resolves it against active
// bindings.
func (s *Service) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.Content == "" {
		return errors.ErrInvalidParam.WithMessage("content must not be empty")
	}
	if _, err := s.GetCollection(ctx, doc.CollectionID); err != nil {
		return err
	}
	if doc.DocumentID == "" {
		doc.DocumentID = id.New()
	}
	if err := s.store.Documents().Create(ctx, doc); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	if err := s.resolver.DocumentChanged(ctx, doc); err != nil {
		logger.Errorw("failed to resolve document create",
			"document_id", doc.DocumentID, "error", err.Error())
	}
	return nil
}

// UpdateDocument updates a document's content and metadata, then
// re-resolves it. The bumped update time fences out in-flight runs
// against the old version.
func (s *Service) UpdateDocument(ctx context.Context, doc *model.Document) error {
	existing, err := s.GetDocument(ctx, doc.DocumentID)
	if err != nil {
		return err
	}
	if doc.Content != "" {
		existing.Content = doc.Content
	}
	if doc.Meta != nil {
		existing.Meta = doc.Meta
	}
	if err := s.store.Documents().Update(ctx, existing); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}

	current, err := s.GetDocument(ctx, doc.DocumentID)
	if err != nil {
		return err
	}
	if err := s.resolver.DocumentChanged(ctx, current); err != nil {
		logger.Errorw("failed to resolve document update",
			"document_id", doc.DocumentID, "error", err.Error())
	}
	return nil
}

// GetDocument retrieves a document.
func (s *Service) GetDocument(ctx context.Context, documentID string) (*model.Document, error) {
	doc, err := s.store.Documents().Get(ctx, documentID)
	if err != nil {
		return nil, notFoundOr(err, errors.ErrNotFound, "document %s not found", documentID)
	}
	return doc, nil
}

// ListDocuments lists documents, optionally scoped to a collection.
func (s *Service) ListDocuments(ctx context.Context, collectionID string, offset, limit int) (*model.DocumentList, error) {
	count, items, err := s.store.Documents().List(ctx, collectionID, offset, limit)
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return &model.DocumentList{TotalCount: count, Items: items}, nil
}

// DeleteDocument deletes a document and synchronously removes its
// records from every index.
func (s *Service) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := s.GetDocument(ctx, documentID); err != nil {
		return err
	}
	if err := s.reconciler.CleanupDocument(ctx, documentID); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	if err := s.store.Documents().Delete(ctx, documentID); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

// --- Transformers ---

// CreateTransformer registers a transformer row. The id must refer to
// a function present in the registry.
func (s *Service) CreateTransformer(ctx context.Context, t *model.Transformer) error {
	if t.TransformerID == "" {
		return errors.ErrInvalidParam.WithMessage("transformer_id must not be empty")
	}
	if _, err := s.registry.Resolve(t.TransformerID); err != nil {
		return err
	}
	if _, err := s.store.Transformers().Get(ctx, t.TransformerID); err == nil {
		return errors.ErrAlreadyExists.WithMessagef("transformer %s already exists", t.TransformerID)
	}
	if err := s.store.Transformers().Create(ctx, t); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

// GetTransformer retrieves a transformer.
func (s *Service) GetTransformer(ctx context.Context, transformerID string) (*model.Transformer, error) {
	t, err := s.store.Transformers().Get(ctx, transformerID)
	if err != nil {
		return nil, notFoundOr(err, errors.ErrTransformerNotFound, "transformer %s not found", transformerID)
	}
	return t, nil
}

// ListTransformers lists transformers.
func (s *Service) ListTransformers(ctx context.Context, offset, limit int) (*model.TransformerList, error) {
	count, items, err := s.store.Transformers().List(ctx, offset, limit)
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return &model.TransformerList{TotalCount: count, Items: items}, nil
}

// DeleteTransformer deletes a transformer row. Bindings referencing it
// must be deleted first.
func (s *Service) DeleteTransformer(ctx context.Context, transformerID string) error {
	if _, err := s.GetTransformer(ctx, transformerID); err != nil {
		return err
	}
	if err := s.store.Transformers().Delete(ctx, transformerID); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

// TestTransformer runs a transformer synchronously against ad-hoc
// content without committing records.
func (s *Service) TestTransformer(ctx context.Context, transformerID, content string, meta model.JSONMap, params model.JSONMap) *model.TransformResult {
	doc := &model.Document{Content: content, Meta: meta}
	return s.resolver.RunSync(ctx, transformerID, doc, params)
}

// --- Indexes ---

// CreateIndex validates the field schema and creates the index with
// its physical record table.
func (s *Service) CreateIndex(ctx context.Context, idx *model.Index) error {
	if idx.IndexID == "" {
		return errors.ErrInvalidParam.WithMessage("index_id must not be empty")
	}
	if err := idx.IndexFields.Validate(); err != nil {
		return errors.ErrInvalidParam.WithMessage(err.Error())
	}
	if _, err := s.store.Indexes().Get(ctx, idx.IndexID); err == nil {
		return errors.ErrAlreadyExists.WithMessagef("index %s already exists", idx.IndexID)
	}
	if err := s.store.Indexes().Create(ctx, idx); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

// GetIndex retrieves an index.
func (s *Service) GetIndex(ctx context.Context, indexID string) (*model.Index, error) {
	idx, err := s.store.Indexes().Get(ctx, indexID)
	if err != nil {
		return nil, notFoundOr(err, errors.ErrNotFound, "index %s not found", indexID)
	}
	return idx, nil
}

// ListIndexes lists indexes.
func (s *Service) ListIndexes(ctx context.Context, offset, limit int) (*model.IndexList, error) {
	count, items, err := s.store.Indexes().List(ctx, offset, limit)
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return &model.IndexList{TotalCount: count, Items: items}, nil
}

// DeleteIndex deletes an index and drops its record table.
func (s *Service) DeleteIndex(ctx context.Context, indexID string) error {
	if _, err := s.GetIndex(ctx, indexID); err != nil {
		return err
	}
	if err := s.store.Indexes().Delete(ctx, indexID); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

// --- Bindings ---

// CreateBinding validates references and the filter, creates the
// binding PENDING, and schedules its backfill. The scheduled count is
// returned with the stored binding.
func (s *Service) CreateBinding(ctx context.Context, b *model.Binding) (int, error) {
	if _, err := s.GetCollection(ctx, b.CollectionID); err != nil {
		return 0, err
	}
	if _, err := s.GetTransformer(ctx, b.TransformerID); err != nil {
		return 0, err
	}
	if _, err := s.GetIndex(ctx, b.IndexID); err != nil {
		return 0, err
	}
	if err := b.Filter.Validate(); err != nil {
		return 0, errors.ErrFilterInvalid.WithMessage(err.Error())
	}

	b.Status = model.BindingStatusPending
	if err := s.store.Bindings().Create(ctx, b); err != nil {
		return 0, errors.ErrDatabase.WithCause(err)
	}

	scheduled, err := s.reconciler.Backfill(ctx, b)
	if err != nil {
		return scheduled, errors.ErrDatabase.WithCause(err)
	}
	return scheduled, nil
}

// GetBinding retrieves a binding.
func (s *Service) GetBinding(ctx context.Context, bindingID int64) (*model.Binding, error) {
	b, err := s.store.Bindings().Get(ctx, bindingID)
	if err != nil {
		return nil, notFoundOr(err, errors.ErrNotFound, "binding %d not found", bindingID)
	}
	return b, nil
}

// ListBindings lists bindings, optionally scoped to a collection.
func (s *Service) ListBindings(ctx context.Context, collectionID string, offset, limit int) (*model.BindingList, error) {
	count, items, err := s.store.Bindings().List(ctx, collectionID, offset, limit)
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return &model.BindingList{TotalCount: count, Items: items}, nil
}

// UpdateBindingStatus transitions a binding between ON and OFF.
// Turning OFF suppresses in-flight commits; turning back ON re-runs
// the backfill to catch documents changed while OFF.
func (s *Service) UpdateBindingStatus(ctx context.Context, bindingID int64, status string) error {
	if status != model.BindingStatusOn && status != model.BindingStatusOff {
		return errors.ErrInvalidParam.WithMessagef("status must be %q or %q",
			model.BindingStatusOn, model.BindingStatusOff)
	}
	b, err := s.GetBinding(ctx, bindingID)
	if err != nil {
		return err
	}
	if b.Status == status {
		return nil
	}

	if status == model.BindingStatusOff {
		if err := s.store.Bindings().UpdateStatus(ctx, bindingID, model.BindingStatusOff); err != nil {
			return errors.ErrDatabase.WithCause(err)
		}
		return nil
	}

	if err := s.store.Bindings().UpdateStatus(ctx, bindingID, model.BindingStatusPending); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	b.Status = model.BindingStatusPending
	if _, err := s.reconciler.Backfill(ctx, b); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

// DeleteBinding deletes a binding and synchronously removes its
// records and run markers.
func (s *Service) DeleteBinding(ctx context.Context, bindingID int64) error {
	b, err := s.GetBinding(ctx, bindingID)
	if err != nil {
		return err
	}
	// Detach first so in-flight commits are suppressed while cleanup
	// runs.
	if err := s.store.Bindings().UpdateStatus(ctx, bindingID, model.BindingStatusDetached); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	if err := s.reconciler.Cleanup(ctx, b); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	if err := s.store.Bindings().Delete(ctx, bindingID); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

// --- Records & tasks ---

// ListRecords lists an index's records, optionally filtered by
// document and binding.
func (s *Service) ListRecords(ctx context.Context, indexID, documentID string, bindingID int64, offset, limit int) (*model.IndexRecordList, error) {
	idx, err := s.GetIndex(ctx, indexID)
	if err != nil {
		return nil, err
	}
	count, items, err := s.store.Records().List(ctx, idx, documentID, bindingID, offset, limit)
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return &model.IndexRecordList{TotalCount: count, Items: items}, nil
}

// TaskStatus reports the queue status for a task id.
func (s *Service) TaskStatus(ctx context.Context, taskID string) (queue.Status, error) {
	return s.executor.Status(ctx, taskID)
}

// RunStatus reports the run marker for a (document, binding) pair.
func (s *Service) RunStatus(ctx context.Context, documentID string, bindingID int64) (*model.BindingRun, error) {
	run, err := s.store.Runs().Get(ctx, documentID, bindingID)
	if err != nil {
		return nil, notFoundOr(err, errors.ErrNotFound, "no run for document %s binding %d", documentID, bindingID)
	}
	return run, nil
}
