package model

import (
	"time"
)

// Document is a unit of content inside a collection.
type Document struct {
	DocumentID   string    `json:"document_id" gorm:"primaryKey;type:varchar(64)"`
	CollectionID string    `json:"collection_id" gorm:"type:varchar(56);index;not null"`
	Content      string    `json:"content" gorm:"type:text;not null"`
	Meta         JSONMap   `json:"meta,omitempty" gorm:"type:json"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Document.
func (Document) TableName() string {
	return "documents"
}

// Version returns the document's fencing version, derived from its
// update time. Versions are strictly increasing across updates.
func (d *Document) Version() int64 {
	return d.UpdatedAt.UnixNano()
}

// DocumentList contains a list of documents and pagination info.
type DocumentList struct {
	TotalCount int64       `json:"totalCount"`
	Items      []*Document `json:"items"`
}
