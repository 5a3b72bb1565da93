package model

import (
	"time"
)

// Collection groups documents that share a processing configuration.
type Collection struct {
	CollectionID string    `json:"collection_id" gorm:"primaryKey;type:varchar(56)"`
	Description  string    `json:"description" gorm:"type:varchar(255)"`
	Config       JSONMap   `json:"config,omitempty" gorm:"type:json"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Collection.
func (Collection) TableName() string {
	return "collections"
}

// CollectionList contains a list of collections.
type CollectionList struct {
	TotalCount int64         `json:"totalCount"`
	Items      []*Collection `json:"items"`
}
