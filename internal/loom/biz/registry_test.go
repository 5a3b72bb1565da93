package biz

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom/internal/model"
	"github.com/loomhq/loom/pkg/errors"
)

func TestRegistryRegisterDuplicate(t *testing.T) {
	r := NewRegistry()

	fn := func(_ context.Context, _ *model.Document, _ model.JSONMap) (*model.TransformOutput, error) {
		return nil, nil
	}
	require.NoError(t, r.Register("text.test.echo", fn))
	err := r.Register("text.test.echo", fn)
	assert.ErrorIs(t, err, errors.ErrDuplicateTransformer)

	assert.Error(t, r.Register("", fn))
	assert.Error(t, r.Register("text.test.nil", nil))
}

func TestRegistryResolveMissing(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("text.test.missing")
	assert.ErrorIs(t, err, errors.ErrTransformerNotFound)
}

func TestRegistryInvoke(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("text.test.echo", func(_ context.Context, doc *model.Document, _ model.JSONMap) (*model.TransformOutput, error) {
		return model.SingleOutput(model.JSONMap{"content": doc.Content}), nil
	}))

	out, err := r.Invoke(context.Background(), "text.test.echo", &model.Document{Content: "hi"}, nil)
	require.NoError(t, err)
	assert.True(t, out.Single)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "hi", out.Records[0]["content"])
}

func TestRegistryInvokeError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("text.test.fail", func(_ context.Context, _ *model.Document, _ model.JSONMap) (*model.TransformOutput, error) {
		return nil, fmt.Errorf("model unavailable")
	}))

	_, err := r.Invoke(context.Background(), "text.test.fail", &model.Document{}, nil)
	require.Error(t, err)

	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "text.test.fail", invErr.TransformerID)
	assert.NotEmpty(t, invErr.Stack)
	assert.Contains(t, invErr.Error(), "model unavailable")
}

func TestRegistryInvokePanicRecovered(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("text.test.panic", func(_ context.Context, _ *model.Document, _ model.JSONMap) (*model.TransformOutput, error) {
		panic("boom")
	}))

	out, err := r.Invoke(context.Background(), "text.test.panic", &model.Document{}, nil)
	assert.Nil(t, out)
	require.Error(t, err)

	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Contains(t, invErr.Err.Error(), "boom")
	assert.NotEmpty(t, invErr.Stack)
}

func TestRegistryInvokeNilOutput(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("text.test.none", func(_ context.Context, _ *model.Document, _ model.JSONMap) (*model.TransformOutput, error) {
		return nil, nil
	}))

	out, err := r.Invoke(context.Background(), "text.test.none", &model.Document{}, nil)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Empty(t, out.Records)
}
