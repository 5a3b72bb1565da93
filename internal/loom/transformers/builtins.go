package transformers

import (
	"github.com/loomhq/loom/internal/loom/biz"
	"github.com/loomhq/loom/internal/model"
	"github.com/loomhq/loom/pkg/component/ollama"
)

// RegisterBuiltins registers the shipped transformers. The Ollama
// embedder is only registered when a client is configured.
func RegisterBuiltins(registry *biz.Registry, ollamaClient *ollama.Client) error {
	if err := registry.Register(WordCounterID, WordCounter); err != nil {
		return err
	}
	if ollamaClient != nil {
		if err := registry.Register(OllamaEmbedderID, NewOllamaEmbedder(ollamaClient)); err != nil {
			return err
		}
	}
	return nil
}

// CatalogRows returns transformer catalog rows for the registered
// built-ins, used to seed the transformers table.
func CatalogRows(registry *biz.Registry) []*model.Transformer {
	rows := make([]*model.Transformer, 0, 2)
	for _, id := range registry.IDs() {
		var desc string
		switch id {
		case WordCounterID:
			desc = "Counts words, lines, and bytes of the document content"
		case OllamaEmbedderID:
			desc = "Embeds the document content with an Ollama model"
		}
		rows = append(rows, &model.Transformer{
			TransformerID: id,
			Path:          id,
			Description:   desc,
		})
	}
	return rows
}
