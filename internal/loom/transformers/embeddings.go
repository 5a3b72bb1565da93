package transformers

import (
	"context"

	"github.com/loomhq/loom/internal/loom/biz"
	"github.com/loomhq/loom/internal/model"
	"github.com/loomhq/loom/pkg/component/ollama"
)

// OllamaEmbedderID is the id of the built-in embedding transformer.
const OllamaEmbedderID = "text.embeddings.ollama"

// NewOllamaEmbedder builds a transformer that embeds the document
// content with the configured Ollama model. The output record carries
// the producer model name so schema hints can be checked at mapping
// time.
func NewOllamaEmbedder(client *ollama.Client) biz.TransformFunc {
	return func(ctx context.Context, doc *model.Document, _ model.JSONMap) (*model.TransformOutput, error) {
		vec, err := client.EmbedSingle(ctx, doc.Content)
		if err != nil {
			return nil, err
		}
		return model.SingleOutput(model.JSONMap{
			"embedding": vec,
			"model":     client.Model(),
		}), nil
	}
}
