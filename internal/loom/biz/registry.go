package biz

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/loomhq/loom/internal/model"
	"github.com/loomhq/loom/pkg/errors"
)

// TransformFunc turns a document into index records. Params carry the
// binding's transformer_params.
type TransformFunc func(ctx context.Context, doc *model.Document, params model.JSONMap) (*model.TransformOutput, error)

// InvocationError wraps a transformer failure with the captured stack.
type InvocationError struct {
	TransformerID string
	Err           error
	Stack         string
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return fmt.Sprintf("transformer %s: %v", e.TransformerID, e.Err)
}

// Unwrap returns the underlying error.
func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Registry holds the transformer functions available to the engine.
// It is injected explicitly; there is no process-global registry.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]TransformFunc
}

// NewRegistry creates an empty transformer registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]TransformFunc)}
}

// Register adds a transformer function under a dotted id. Registering
// an id twice is an error.
func (r *Registry) Register(transformerID string, fn TransformFunc) error {
	if transformerID == "" {
		return errors.ErrInvalidParam.WithMessage("transformer id must not be empty")
	}
	if fn == nil {
		return errors.ErrInvalidParam.WithMessage("transformer function must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[transformerID]; exists {
		return errors.ErrDuplicateTransformer.WithMessagef("transformer %s already registered", transformerID)
	}
	r.funcs[transformerID] = fn
	return nil
}

// Resolve looks up a transformer function by id.
func (r *Registry) Resolve(transformerID string) (TransformFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[transformerID]
	if !ok {
		return nil, errors.ErrTransformerNotFound.WithMessagef("transformer %s not registered", transformerID)
	}
	return fn, nil
}

// IDs returns the registered transformer ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.funcs))
	for id := range r.funcs {
		ids = append(ids, id)
	}
	return ids
}

// Invoke runs the transformer against the document. Panics and errors
// both surface as an *InvocationError carrying the captured stack.
func (r *Registry) Invoke(ctx context.Context, transformerID string, doc *model.Document, params model.JSONMap) (output *model.TransformOutput, err error) {
	fn, err := r.Resolve(transformerID)
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			output = nil
			err = &InvocationError{
				TransformerID: transformerID,
				Err:           fmt.Errorf("panic: %v", rec),
				Stack:         string(debug.Stack()),
			}
		}
	}()

	output, err = fn(ctx, doc, params)
	if err != nil {
		return nil, &InvocationError{
			TransformerID: transformerID,
			Err:           err,
			Stack:         string(debug.Stack()),
		}
	}
	if output == nil {
		output = model.ManyOutput(nil)
	}
	return output, nil
}

// InvokeTimed runs Invoke and reports the wall time, for the sync
// test-transformer path.
func (r *Registry) InvokeTimed(ctx context.Context, transformerID string, doc *model.Document, params model.JSONMap) (*model.TransformOutput, time.Duration, error) {
	start := time.Now()
	output, err := r.Invoke(ctx, transformerID, doc, params)
	return output, time.Since(start), err
}
