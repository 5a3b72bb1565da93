package transformers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom/internal/loom/biz"
	"github.com/loomhq/loom/internal/model"
)

func TestWordCounter(t *testing.T) {
	tests := []struct {
		name    string
		content string
		words   int64
		lines   int64
	}{
		{"empty", "", 0, 0},
		{"single line", "hello world", 2, 1},
		{"trailing newline", "hello world\n", 2, 1},
		{"multiline", "one two\nthree\nfour five six", 6, 3},
		{"whitespace only", "   \n  ", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := WordCounter(context.Background(), &model.Document{Content: tt.content}, nil)
			require.NoError(t, err)
			require.True(t, out.Single)
			require.Len(t, out.Records, 1)

			rec := out.Records[0]
			assert.Equal(t, tt.words, rec["word_count"])
			assert.Equal(t, tt.lines, rec["line_count"])
			assert.Equal(t, int64(len(tt.content)), rec["size"])
		})
	}
}

func newTestRegistry(t *testing.T) *biz.Registry {
	t.Helper()
	registry := biz.NewRegistry()
	require.NoError(t, RegisterBuiltins(registry, nil))
	return registry
}

func TestRegisterBuiltinsWithoutEmbedder(t *testing.T) {
	registry := newTestRegistry(t)
	assert.Equal(t, []string{WordCounterID}, registry.IDs())
}

func TestCatalogRows(t *testing.T) {
	registry := newTestRegistry(t)
	rows := CatalogRows(registry)
	require.Len(t, rows, 1)
	assert.Equal(t, WordCounterID, rows[0].TransformerID)
	assert.NotEmpty(t, rows[0].Description)
}
