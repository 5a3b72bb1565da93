package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Filter condition operations.
const (
	OpEqual                = "equals"
	OpEqualCI              = "equals_ci"
	OpNotEqual             = "not_equals"
	OpLessThan             = "less_than"
	OpLessThanOrEquals     = "less_than_or_equals"
	OpGreaterThan          = "greater_than"
	OpGreaterThanOrEquals  = "greater_than_or_equals"
	OpContains             = "contains"
	OpContainsCI           = "contains_ci"
	OpNotContains          = "not_contains"
	OpNotContainsCI        = "not_contains_ci"
	OpStartsWith           = "starts_with"
	OpStartsWithCI         = "starts_with_ci"
	OpEndsWith             = "ends_with"
	OpEndsWithCI           = "ends_with_ci"
	OpIn                   = "in"
	OpNotIn                = "not_in"
)

// Filter combination modes.
const (
	CombinationAnd = "and"
	CombinationOr  = "or"
)

var validOperations = map[string]bool{
	OpEqual: true, OpEqualCI: true, OpNotEqual: true,
	OpLessThan: true, OpLessThanOrEquals: true,
	OpGreaterThan: true, OpGreaterThanOrEquals: true,
	OpContains: true, OpContainsCI: true,
	OpNotContains: true, OpNotContainsCI: true,
	OpStartsWith: true, OpStartsWithCI: true,
	OpEndsWith: true, OpEndsWithCI: true,
	OpIn: true, OpNotIn: true,
}

// Condition is a single predicate against a document field path.
// Field is a dotted path rooted at the document, e.g. "content" or
// "meta.lang".
type Condition struct {
	Field     string `json:"field"`
	Operation string `json:"operation"`
	Value     any    `json:"value"`
	Negate    bool   `json:"negate,omitempty"`
}

// Validate checks the condition's shape. Malformed conditions are
// rejected here so evaluation never sees them.
func (c *Condition) Validate() error {
	if strings.TrimSpace(c.Field) == "" {
		return fmt.Errorf("condition field must not be empty")
	}
	if !validOperations[c.Operation] {
		return fmt.Errorf("unknown filter operation %q", c.Operation)
	}
	if c.Operation == OpIn || c.Operation == OpNotIn {
		if _, ok := c.Value.([]any); !ok {
			return fmt.Errorf("operation %q requires a list value", c.Operation)
		}
	}
	return nil
}

// Filter is a predicate tree evaluated against a document. A nil
// *Filter matches every document.
type Filter struct {
	Conditions  []Condition `json:"conditions"`
	Combination string      `json:"combination"`
	Negate      bool        `json:"negate,omitempty"`
}

// Validate checks the filter and all its conditions.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Combination != CombinationAnd && f.Combination != CombinationOr {
		return fmt.Errorf("combination must be %q or %q, got %q",
			CombinationAnd, CombinationOr, f.Combination)
	}
	for i := range f.Conditions {
		if err := f.Conditions[i].Validate(); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}
	return nil
}

// Value implements driver.Valuer.
func (f *Filter) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *Filter) Scan(value any) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for Filter: %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, f)
}
