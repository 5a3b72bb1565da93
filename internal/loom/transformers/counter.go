// Package transformers provides the built-in transformer functions
// shipped with the engine.
package transformers

import (
	"context"
	"strings"

	"github.com/loomhq/loom/internal/loom/biz"
	"github.com/loomhq/loom/internal/model"
)

// WordCounterID is the id of the built-in counting transformer.
const WordCounterID = "text.counter.word_counter"

// WordCounter produces one record with word, line, and byte counts for
// the document content.
func WordCounter(_ context.Context, doc *model.Document, _ model.JSONMap) (*model.TransformOutput, error) {
	return model.SingleOutput(model.JSONMap{
		"word_count": int64(len(strings.Fields(doc.Content))),
		"line_count": int64(countLines(doc.Content)),
		"size":       int64(len(doc.Content)),
	}), nil
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n") + 1
	if strings.HasSuffix(s, "\n") {
		n--
	}
	return n
}

var _ biz.TransformFunc = WordCounter
