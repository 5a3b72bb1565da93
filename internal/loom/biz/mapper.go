package biz

import (
	"fmt"

	"github.com/kart-io/logger"

	"github.com/loomhq/loom/internal/model"
)

// MapOutput projects transformer output records onto the index schema,
// producing one draft per output record.
//
// The binding's transformer_params.index_fields selects which output
// fields to keep; when unset every schema field is eligible. Output
// fields absent from the schema are dropped silently. A record missing
// a required schema field becomes an invalid draft: it is logged and
// excluded from the commit, and the rest of the batch proceeds.
func MapOutput(binding *model.Binding, idx *model.Index, documentID string, output *model.TransformOutput) []*model.RecordDraft {
	if output == nil || len(output.Records) == 0 {
		return nil
	}

	projection := binding.IndexFieldsProjection()
	eligible := make(map[string]bool, len(idx.IndexFields))
	if len(projection) == 0 {
		for name := range idx.IndexFields {
			eligible[name] = true
		}
	} else {
		for _, name := range projection {
			if _, ok := idx.IndexFields[name]; ok {
				eligible[name] = true
			}
		}
	}

	drafts := make([]*model.RecordDraft, 0, len(output.Records))
	for ordinal, record := range output.Records {
		draft := &model.RecordDraft{
			DocumentID: documentID,
			BindingID:  binding.BindingID,
			Ordinal:    ordinal,
			Fields:     model.JSONMap{},
		}

		for name, value := range record {
			if !eligible[name] {
				continue
			}
			field := idx.IndexFields[name]
			if field.Type == model.FieldTypeEmbedding {
				if producer, ok := record["model"].(string); ok && !field.ModelMatches(producer) {
					draft.Invalid = true
					draft.Reason = fmt.Sprintf("field %s: embedding produced by %s, schema expects %s",
						name, producer, field.Extras.Model)
					break
				}
				vec, ok := toVector(value)
				if !ok {
					draft.Invalid = true
					draft.Reason = fmt.Sprintf("field %s: embedding value is not a numeric vector", name)
					break
				}
				if field.Extras != nil && field.Extras.Dimensions > 0 && len(vec) != field.Extras.Dimensions {
					draft.Invalid = true
					draft.Reason = fmt.Sprintf("field %s: embedding has %d dimensions, schema requires %d",
						name, len(vec), field.Extras.Dimensions)
					break
				}
				draft.Embedding = vec
				continue
			}
			draft.Fields[name] = value
		}

		if !draft.Invalid {
			for name, field := range idx.IndexFields {
				if field.Optional || !eligible[name] {
					continue
				}
				if field.Type == model.FieldTypeEmbedding {
					if draft.Embedding == nil {
						draft.Invalid = true
						draft.Reason = fmt.Sprintf("missing required field %s", name)
						break
					}
					continue
				}
				if _, ok := draft.Fields[name]; !ok {
					draft.Invalid = true
					draft.Reason = fmt.Sprintf("missing required field %s", name)
					break
				}
			}
		}

		if draft.Invalid {
			logger.Warnw("record draft invalid, skipping",
				"document_id", documentID,
				"binding_id", binding.BindingID,
				"index_id", idx.IndexID,
				"ordinal", ordinal,
				"reason", draft.Reason,
			)
		}
		drafts = append(drafts, draft)
	}
	return drafts
}

func toVector(value any) ([]float64, bool) {
	switch v := value.(type) {
	case []float64:
		return v, true
	case []any:
		vec := make([]float64, len(v))
		for i, item := range v {
			f, ok := toFloat(item)
			if !ok {
				return nil, false
			}
			vec[i] = f
		}
		return vec, true
	}
	return nil, false
}
