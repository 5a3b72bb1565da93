package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Index field types.
const (
	FieldTypeText      = "text"
	FieldTypeInteger   = "integer"
	FieldTypeFloat     = "float"
	FieldTypeBoolean   = "boolean"
	FieldTypeDatetime  = "datetime"
	FieldTypeEmbedding = "embedding"
	FieldTypeObject    = "object"
)

// IndexFieldExtras carries type-specific field attributes. For embedding
// fields, Dimensions is the vector size and Model is the expected
// producer model hint ("*" matches any model).
type IndexFieldExtras struct {
	Dimensions int    `json:"dimensions,omitempty"`
	Model      string `json:"model,omitempty"`
}

// IndexField describes a single field in an index schema.
type IndexField struct {
	Type     string            `json:"type"`
	Optional bool              `json:"optional,omitempty"`
	Extras   *IndexFieldExtras `json:"extras,omitempty"`
}

// ModelMatches reports whether producerModel satisfies the field's
// expected-model hint. A "*" segment matches anything at that position.
func (f *IndexField) ModelMatches(producerModel string) bool {
	if f.Extras == nil || f.Extras.Model == "" || f.Extras.Model == "*" {
		return true
	}
	want := strings.Split(f.Extras.Model, ".")
	got := strings.Split(producerModel, ".")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != "*" && want[i] != got[i] {
			return false
		}
	}
	return true
}

// IndexFields maps field name to its schema, stored as a JSON column.
type IndexFields map[string]IndexField

// Value implements driver.Valuer.
func (f IndexFields) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *IndexFields) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for IndexFields: %T", value)
	}
	if len(data) == 0 {
		*f = nil
		return nil
	}
	return json.Unmarshal(data, f)
}

// Validate checks that every field declares a known type and that
// embedding fields carry positive dimensions.
func (f IndexFields) Validate() error {
	for name, field := range f {
		switch field.Type {
		case FieldTypeText, FieldTypeInteger, FieldTypeFloat, FieldTypeBoolean,
			FieldTypeDatetime, FieldTypeObject:
		case FieldTypeEmbedding:
			if field.Extras == nil || field.Extras.Dimensions <= 0 {
				return fmt.Errorf("embedding field %q requires positive dimensions", name)
			}
		default:
			return fmt.Errorf("field %q has unknown type %q", name, field.Type)
		}
	}
	return nil
}

// Index is a destination for transformer output, backed by a dedicated
// physical record table whose schema is fixed at creation time.
type Index struct {
	IndexID        string      `json:"index_id" gorm:"primaryKey;type:varchar(56)"`
	Description    string      `json:"description" gorm:"type:varchar(255)"`
	IndexTableName string      `json:"index_table_name" gorm:"type:varchar(64);not null"`
	IndexFields    IndexFields `json:"index_fields" gorm:"type:json"`
	CreatedAt      time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Index.
func (Index) TableName() string {
	return "indexes"
}

// RecordTableName derives the physical record table name for an index id.
func RecordTableName(indexID string) string {
	return "index__" + strings.ReplaceAll(indexID, "-", "_")
}

// IndexList contains a list of indexes.
type IndexList struct {
	TotalCount int64    `json:"totalCount"`
	Items      []*Index `json:"items"`
}
