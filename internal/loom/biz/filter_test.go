package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loomhq/loom/internal/model"
)

func testDoc() *model.Document {
	return &model.Document{
		DocumentID:   "doc1",
		CollectionID: "docs",
		Content:      "Hello World",
		Meta: model.JSONMap{
			"lang": "en",
			"size": float64(42),
			"nested": map[string]any{
				"flag": true,
			},
		},
	}
}

func TestEvaluateFilterNilMatchesAll(t *testing.T) {
	assert.True(t, EvaluateFilter(nil, testDoc()))
}

func TestEvaluateFilterEmptyCombinations(t *testing.T) {
	doc := testDoc()

	// Empty AND matches, empty OR does not.
	assert.True(t, EvaluateFilter(&model.Filter{Combination: model.CombinationAnd}, doc))
	assert.False(t, EvaluateFilter(&model.Filter{Combination: model.CombinationOr}, doc))
}

func TestEvaluateFilterOperations(t *testing.T) {
	doc := testDoc()

	tests := []struct {
		name string
		cond model.Condition
		want bool
	}{
		{"equals", model.Condition{Field: "meta.lang", Operation: model.OpEqual, Value: "en"}, true},
		{"equals mismatch", model.Condition{Field: "meta.lang", Operation: model.OpEqual, Value: "fr"}, false},
		{"equals_ci", model.Condition{Field: "content", Operation: model.OpEqualCI, Value: "hello world"}, true},
		{"not_equals", model.Condition{Field: "meta.lang", Operation: model.OpNotEqual, Value: "fr"}, true},
		{"less_than", model.Condition{Field: "meta.size", Operation: model.OpLessThan, Value: float64(100)}, true},
		{"less_than_or_equals", model.Condition{Field: "meta.size", Operation: model.OpLessThanOrEquals, Value: float64(42)}, true},
		{"greater_than", model.Condition{Field: "meta.size", Operation: model.OpGreaterThan, Value: float64(42)}, false},
		{"greater_than_or_equals", model.Condition{Field: "meta.size", Operation: model.OpGreaterThanOrEquals, Value: float64(42)}, true},
		{"contains", model.Condition{Field: "content", Operation: model.OpContains, Value: "World"}, true},
		{"contains case mismatch", model.Condition{Field: "content", Operation: model.OpContains, Value: "world"}, false},
		{"contains_ci", model.Condition{Field: "content", Operation: model.OpContainsCI, Value: "world"}, true},
		{"not_contains", model.Condition{Field: "content", Operation: model.OpNotContains, Value: "xyz"}, true},
		{"not_contains_ci", model.Condition{Field: "content", Operation: model.OpNotContainsCI, Value: "WORLD"}, false},
		{"starts_with", model.Condition{Field: "content", Operation: model.OpStartsWith, Value: "Hello"}, true},
		{"starts_with_ci", model.Condition{Field: "content", Operation: model.OpStartsWithCI, Value: "hello"}, true},
		{"ends_with", model.Condition{Field: "content", Operation: model.OpEndsWith, Value: "World"}, true},
		{"ends_with_ci", model.Condition{Field: "content", Operation: model.OpEndsWithCI, Value: "WORLD"}, true},
		{"in", model.Condition{Field: "meta.lang", Operation: model.OpIn, Value: []any{"en", "fr"}}, true},
		{"in miss", model.Condition{Field: "meta.lang", Operation: model.OpIn, Value: []any{"de", "fr"}}, false},
		{"not_in", model.Condition{Field: "meta.lang", Operation: model.OpNotIn, Value: []any{"de", "fr"}}, true},
		{"bool equals", model.Condition{Field: "meta.nested.flag", Operation: model.OpEqual, Value: true}, true},
		{"int vs float numeric", model.Condition{Field: "meta.size", Operation: model.OpEqual, Value: 42}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &model.Filter{
				Conditions:  []model.Condition{tt.cond},
				Combination: model.CombinationAnd,
			}
			assert.Equal(t, tt.want, EvaluateFilter(f, doc))
		})
	}
}

func TestEvaluateFilterFailsClosed(t *testing.T) {
	doc := testDoc()

	// Missing field.
	f := &model.Filter{
		Conditions: []model.Condition{
			{Field: "meta.missing", Operation: model.OpEqual, Value: "x"},
		},
		Combination: model.CombinationAnd,
	}
	assert.False(t, EvaluateFilter(f, doc))

	// Type mismatch: string op against a number.
	f = &model.Filter{
		Conditions: []model.Condition{
			{Field: "meta.size", Operation: model.OpContains, Value: "4"},
		},
		Combination: model.CombinationAnd,
	}
	assert.False(t, EvaluateFilter(f, doc))
}

func TestEvaluateFilterAbsentField(t *testing.T) {
	doc := testDoc()

	tests := []struct {
		name string
		cond model.Condition
		want bool
	}{
		{"equals null matches absence", model.Condition{Field: "meta.missing", Operation: model.OpEqual, Value: nil}, true},
		{"equals_ci null matches absence", model.Condition{Field: "meta.missing", Operation: model.OpEqualCI, Value: nil}, true},
		{"equals value misses absence", model.Condition{Field: "meta.missing", Operation: model.OpEqual, Value: "x"}, false},
		{"not_equals value matches absence", model.Condition{Field: "meta.missing", Operation: model.OpNotEqual, Value: "python"}, true},
		{"not_equals null misses absence", model.Condition{Field: "meta.missing", Operation: model.OpNotEqual, Value: nil}, false},
		{"in with null member", model.Condition{Field: "meta.missing", Operation: model.OpIn, Value: []any{nil, "en"}}, true},
		{"in without null member", model.Condition{Field: "meta.missing", Operation: model.OpIn, Value: []any{"en"}}, false},
		{"not_in with null member", model.Condition{Field: "meta.missing", Operation: model.OpNotIn, Value: []any{nil}}, true},
		{"order fails closed", model.Condition{Field: "meta.missing", Operation: model.OpLessThan, Value: float64(5)}, false},
		{"contains fails closed", model.Condition{Field: "meta.missing", Operation: model.OpContains, Value: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &model.Filter{
				Conditions:  []model.Condition{tt.cond},
				Combination: model.CombinationAnd,
			}
			assert.Equal(t, tt.want, EvaluateFilter(f, doc))
		})
	}

	// An explicit null metadata value behaves like absence.
	doc.Meta["nullable"] = nil
	f := &model.Filter{
		Conditions: []model.Condition{
			{Field: "meta.nullable", Operation: model.OpEqual, Value: nil},
		},
		Combination: model.CombinationAnd,
	}
	assert.True(t, EvaluateFilter(f, doc))
}

func TestEvaluateFilterNegate(t *testing.T) {
	doc := testDoc()

	// Condition-level negate.
	f := &model.Filter{
		Conditions: []model.Condition{
			{Field: "meta.lang", Operation: model.OpEqual, Value: "fr", Negate: true},
		},
		Combination: model.CombinationAnd,
	}
	assert.True(t, EvaluateFilter(f, doc))

	// Filter-level negate.
	f = &model.Filter{
		Conditions: []model.Condition{
			{Field: "meta.lang", Operation: model.OpEqual, Value: "en"},
		},
		Combination: model.CombinationAnd,
		Negate:      true,
	}
	assert.False(t, EvaluateFilter(f, doc))

	// Negated missing-field condition matches: the condition itself
	// fails closed, then flips.
	f = &model.Filter{
		Conditions: []model.Condition{
			{Field: "meta.missing", Operation: model.OpEqual, Value: "x", Negate: true},
		},
		Combination: model.CombinationAnd,
	}
	assert.True(t, EvaluateFilter(f, doc))
}

func TestEvaluateFilterCombinations(t *testing.T) {
	doc := testDoc()

	f := &model.Filter{
		Conditions: []model.Condition{
			{Field: "meta.lang", Operation: model.OpEqual, Value: "en"},
			{Field: "content", Operation: model.OpContains, Value: "nothing"},
		},
		Combination: model.CombinationAnd,
	}
	assert.False(t, EvaluateFilter(f, doc))

	f.Combination = model.CombinationOr
	assert.True(t, EvaluateFilter(f, doc))
}

func TestConditionValidate(t *testing.T) {
	assert.Error(t, (&model.Condition{Field: "", Operation: model.OpEqual}).Validate())
	assert.Error(t, (&model.Condition{Field: "content", Operation: "like"}).Validate())
	assert.Error(t, (&model.Condition{Field: "meta.lang", Operation: model.OpIn, Value: "en"}).Validate())
	assert.NoError(t, (&model.Condition{Field: "meta.lang", Operation: model.OpIn, Value: []any{"en"}}).Validate())

	f := &model.Filter{
		Conditions:  []model.Condition{{Field: "content", Operation: model.OpEqual, Value: "x"}},
		Combination: "xor",
	}
	assert.Error(t, f.Validate())
}
