// Package biz implements the Loom binding execution engine: filter
// evaluation, transformer invocation, output mapping, run resolution,
// and consistency reconciliation.
package biz

import (
	"encoding/json"
	"strings"

	"github.com/loomhq/loom/internal/model"
)

// EvaluateFilter reports whether the document matches the filter. A nil
// filter matches everything. Against a missing or null field, equality
// and membership operations can test for absence; every other
// operation fails closed, as do type mismatches.
func EvaluateFilter(f *model.Filter, doc *model.Document) bool {
	if f == nil {
		return true
	}

	var result bool
	switch f.Combination {
	case model.CombinationOr:
		result = false
		for i := range f.Conditions {
			if evaluateCondition(&f.Conditions[i], doc) {
				result = true
				break
			}
		}
	default:
		result = true
		for i := range f.Conditions {
			if !evaluateCondition(&f.Conditions[i], doc) {
				result = false
				break
			}
		}
	}

	if f.Negate {
		return !result
	}
	return result
}

func evaluateCondition(c *model.Condition, doc *model.Document) bool {
	value, ok := resolveField(doc, c.Field)
	var result bool
	if !ok || value == nil {
		result = absentMatches(c.Operation, c.Value)
	} else {
		result = applyOperation(c.Operation, value, c.Value)
	}
	if c.Negate {
		return !result
	}
	return result
}

// absentMatches resolves a condition against a missing or null field
// value. Equality can test for absence directly; in and not_in both
// reduce to null list membership; every other operation is false.
func absentMatches(op string, condValue any) bool {
	switch op {
	case model.OpEqual, model.OpEqualCI:
		return condValue == nil
	case model.OpNotEqual:
		return condValue != nil
	case model.OpIn, model.OpNotIn:
		list, ok := condValue.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if item == nil {
				return true
			}
		}
		return false
	}
	return false
}

// resolveField resolves a dotted field path against the document. Top
// level names are the document's own fields; "meta.x.y" descends into
// the metadata map.
func resolveField(doc *model.Document, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any
	switch parts[0] {
	case "document_id":
		current = doc.DocumentID
	case "collection_id":
		current = doc.CollectionID
	case "content":
		current = doc.Content
	case "meta":
		current = map[string]any(doc.Meta)
	case "created_at":
		current = doc.CreatedAt
	case "updated_at":
		current = doc.UpdatedAt
	default:
		return nil, false
	}

	for _, part := range parts[1:] {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func applyOperation(op string, fieldValue, condValue any) bool {
	switch op {
	case model.OpEqual:
		return compareEqual(fieldValue, condValue, false)
	case model.OpEqualCI:
		return compareEqual(fieldValue, condValue, true)
	case model.OpNotEqual:
		return !compareEqual(fieldValue, condValue, false)
	case model.OpLessThan, model.OpLessThanOrEquals,
		model.OpGreaterThan, model.OpGreaterThanOrEquals:
		return compareOrder(op, fieldValue, condValue)
	case model.OpContains, model.OpContainsCI,
		model.OpNotContains, model.OpNotContainsCI,
		model.OpStartsWith, model.OpStartsWithCI,
		model.OpEndsWith, model.OpEndsWithCI:
		return compareString(op, fieldValue, condValue)
	case model.OpIn:
		return compareIn(fieldValue, condValue)
	case model.OpNotIn:
		list, ok := condValue.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if compareEqual(fieldValue, item, false) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func compareEqual(a, b any, caseInsensitive bool) bool {
	if fa, fb, ok := bothNumeric(a, b); ok {
		return fa == fb
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		if caseInsensitive {
			return strings.EqualFold(sa, sb)
		}
		return sa == sb
	}
	ba, okA := a.(bool)
	bb, okB := b.(bool)
	if okA && okB {
		return ba == bb
	}
	return false
}

func compareOrder(op string, a, b any) bool {
	fa, fb, ok := bothNumeric(a, b)
	if !ok {
		sa, okA := a.(string)
		sb, okB := b.(string)
		if !okA || !okB {
			return false
		}
		switch op {
		case model.OpLessThan:
			return sa < sb
		case model.OpLessThanOrEquals:
			return sa <= sb
		case model.OpGreaterThan:
			return sa > sb
		case model.OpGreaterThanOrEquals:
			return sa >= sb
		}
		return false
	}
	switch op {
	case model.OpLessThan:
		return fa < fb
	case model.OpLessThanOrEquals:
		return fa <= fb
	case model.OpGreaterThan:
		return fa > fb
	case model.OpGreaterThanOrEquals:
		return fa >= fb
	}
	return false
}

func compareString(op string, a, b any) bool {
	sa, okA := a.(string)
	sb, okB := b.(string)
	if !okA || !okB {
		return false
	}
	switch op {
	case model.OpContains:
		return strings.Contains(sa, sb)
	case model.OpContainsCI:
		return strings.Contains(strings.ToLower(sa), strings.ToLower(sb))
	case model.OpNotContains:
		return !strings.Contains(sa, sb)
	case model.OpNotContainsCI:
		return !strings.Contains(strings.ToLower(sa), strings.ToLower(sb))
	case model.OpStartsWith:
		return strings.HasPrefix(sa, sb)
	case model.OpStartsWithCI:
		return strings.HasPrefix(strings.ToLower(sa), strings.ToLower(sb))
	case model.OpEndsWith:
		return strings.HasSuffix(sa, sb)
	case model.OpEndsWithCI:
		return strings.HasSuffix(strings.ToLower(sa), strings.ToLower(sb))
	}
	return false
}

func compareIn(fieldValue, condValue any) bool {
	list, ok := condValue.([]any)
	if !ok {
		return false
	}
	for _, item := range list {
		if compareEqual(fieldValue, item, false) {
			return true
		}
	}
	return false
}

// bothNumeric converts both values to float64 when both are numeric.
func bothNumeric(a, b any) (float64, float64, bool) {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	return fa, fb, okA && okB
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
