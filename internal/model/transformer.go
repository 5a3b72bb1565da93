package model

import (
	"time"
)

// Transformer is a registered content-to-record function. The ID is a
// dotted name, e.g. "text.counter.word_counter".
type Transformer struct {
	TransformerID string    `json:"transformer_id" gorm:"primaryKey;type:varchar(255)"`
	Path          string    `json:"path" gorm:"type:varchar(255)"`
	Description   string    `json:"description" gorm:"type:varchar(255)"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Transformer.
func (Transformer) TableName() string {
	return "transformers"
}

// TransformerList contains a list of transformers.
type TransformerList struct {
	TotalCount int64          `json:"totalCount"`
	Items      []*Transformer `json:"items"`
}
