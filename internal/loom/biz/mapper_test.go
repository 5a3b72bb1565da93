package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom/internal/model"
)

func countsIndex() *model.Index {
	return &model.Index{
		IndexID: "counts",
		IndexFields: model.IndexFields{
			"word_count": {Type: model.FieldTypeInteger},
			"line_count": {Type: model.FieldTypeInteger, Optional: true},
		},
	}
}

func TestMapOutputProjectsSchemaFields(t *testing.T) {
	binding := &model.Binding{BindingID: 1}
	output := model.SingleOutput(model.JSONMap{
		"word_count": int64(5),
		"line_count": int64(2),
		"extraneous": "dropped",
	})

	drafts := MapOutput(binding, countsIndex(), "doc1", output)
	require.Len(t, drafts, 1)
	assert.False(t, drafts[0].Invalid)
	assert.Equal(t, "doc1", drafts[0].DocumentID)
	assert.Equal(t, int64(1), drafts[0].BindingID)
	assert.Equal(t, 0, drafts[0].Ordinal)
	assert.Equal(t, int64(5), drafts[0].Fields["word_count"])
	assert.NotContains(t, drafts[0].Fields, "extraneous")
}

func TestMapOutputExplicitProjection(t *testing.T) {
	binding := &model.Binding{
		BindingID: 1,
		TransformerParams: model.JSONMap{
			"index_fields": []any{"word_count"},
		},
	}
	output := model.SingleOutput(model.JSONMap{
		"word_count": int64(5),
		"line_count": int64(2),
	})

	drafts := MapOutput(binding, countsIndex(), "doc1", output)
	require.Len(t, drafts, 1)
	assert.False(t, drafts[0].Invalid)
	assert.Contains(t, drafts[0].Fields, "word_count")
	assert.NotContains(t, drafts[0].Fields, "line_count")
}

func TestMapOutputMissingRequiredField(t *testing.T) {
	binding := &model.Binding{BindingID: 1}
	output := model.ManyOutput([]model.JSONMap{
		{"word_count": int64(5)},
		{"line_count": int64(2)},
		{"word_count": int64(9)},
	})

	drafts := MapOutput(binding, countsIndex(), "doc1", output)
	require.Len(t, drafts, 3)
	assert.False(t, drafts[0].Invalid)
	assert.True(t, drafts[1].Invalid)
	assert.Contains(t, drafts[1].Reason, "word_count")
	assert.False(t, drafts[2].Invalid)
	assert.Equal(t, 2, drafts[2].Ordinal)
}

func embeddingIndex(dims int, modelHint string) *model.Index {
	return &model.Index{
		IndexID: "embeddings",
		IndexFields: model.IndexFields{
			"embedding": {
				Type: model.FieldTypeEmbedding,
				Extras: &model.IndexFieldExtras{
					Dimensions: dims,
					Model:      modelHint,
				},
			},
		},
	}
}

func TestMapOutputEmbedding(t *testing.T) {
	binding := &model.Binding{BindingID: 1}
	output := model.SingleOutput(model.JSONMap{
		"embedding": []float64{0.1, 0.2, 0.3},
		"model":     "text.embeddings.ollama",
	})

	drafts := MapOutput(binding, embeddingIndex(3, "*"), "doc1", output)
	require.Len(t, drafts, 1)
	assert.False(t, drafts[0].Invalid)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, drafts[0].Embedding)
	assert.Empty(t, drafts[0].Fields)
}

func TestMapOutputEmbeddingDimensionMismatch(t *testing.T) {
	binding := &model.Binding{BindingID: 1}
	output := model.SingleOutput(model.JSONMap{
		"embedding": []float64{0.1, 0.2},
	})

	drafts := MapOutput(binding, embeddingIndex(3, "*"), "doc1", output)
	require.Len(t, drafts, 1)
	assert.True(t, drafts[0].Invalid)
	assert.Contains(t, drafts[0].Reason, "dimensions")
}

func TestMapOutputEmbeddingModelHint(t *testing.T) {
	binding := &model.Binding{BindingID: 1}
	output := model.SingleOutput(model.JSONMap{
		"embedding": []float64{0.1, 0.2, 0.3},
		"model":     "text.embeddings.openai",
	})

	// Wildcard segment matches.
	drafts := MapOutput(binding, embeddingIndex(3, "text.embeddings.*"), "doc1", output)
	require.Len(t, drafts, 1)
	assert.False(t, drafts[0].Invalid)

	// Exact hint rejects a different producer.
	drafts = MapOutput(binding, embeddingIndex(3, "text.embeddings.ollama"), "doc1", output)
	require.Len(t, drafts, 1)
	assert.True(t, drafts[0].Invalid)
}

func TestMapOutputEmptyOutput(t *testing.T) {
	binding := &model.Binding{BindingID: 1}
	assert.Nil(t, MapOutput(binding, countsIndex(), "doc1", nil))
	assert.Nil(t, MapOutput(binding, countsIndex(), "doc1", model.ManyOutput(nil)))
}
