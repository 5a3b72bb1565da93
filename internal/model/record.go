package model

import (
	"time"
)

// IndexRecord is a row in a per-index record table. Every index gets its
// own physical table named by RecordTableName; queries select the table
// explicitly, so IndexRecord carries no TableName.
type IndexRecord struct {
	RecordID   string    `json:"record_id" gorm:"primaryKey;type:varchar(64)"`
	DocumentID string    `json:"document_id" gorm:"type:varchar(64);not null"`
	BindingID  int64     `json:"binding_id" gorm:"not null"`
	Ordinal    int       `json:"ordinal" gorm:"not null"`
	Version    int64     `json:"version" gorm:"not null"`
	TaskID     string    `json:"task_id" gorm:"type:varchar(64)"`
	Fields     JSONMap   `json:"fields" gorm:"type:json"`
	Embedding  JSONSlice `json:"embedding,omitempty" gorm:"type:json"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// RecordDraft is a mapped transformer output row awaiting commit.
// Invalid drafts (missing required fields) are logged and dropped; the
// rest of the batch commits normally.
type RecordDraft struct {
	DocumentID string
	BindingID  int64
	Ordinal    int
	Fields     JSONMap
	Embedding  []float64
	Invalid    bool
	Reason     string
}

// IndexRecordList contains a list of index records.
type IndexRecordList struct {
	TotalCount int64          `json:"totalCount"`
	Items      []*IndexRecord `json:"items"`
}
