package model

// TransformOutput is the tagged result of a transformer invocation:
// either a single record or a list of records.
type TransformOutput struct {
	Single  bool      `json:"single"`
	Records []JSONMap `json:"records"`
}

// SingleOutput wraps one record as a transform output.
func SingleOutput(record JSONMap) *TransformOutput {
	return &TransformOutput{Single: true, Records: []JSONMap{record}}
}

// ManyOutput wraps a record list as a transform output.
func ManyOutput(records []JSONMap) *TransformOutput {
	return &TransformOutput{Records: records}
}

// TransformResult is the outcome of a synchronous transformer run,
// returned by the "apply now" and test-transformer paths.
type TransformResult struct {
	TransformerID string           `json:"transformer_id"`
	DocumentID    string           `json:"document_id,omitempty"`
	Output        *TransformOutput `json:"output,omitempty"`
	DurationMS    int64            `json:"duration_ms"`
	Error         string           `json:"error,omitempty"`
}
