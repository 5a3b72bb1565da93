package model

import (
	"time"
)

// Binding statuses.
const (
	BindingStatusPending  = "pending"
	BindingStatusOn       = "on"
	BindingStatusOff      = "off"
	BindingStatusDetached = "detached"
)

// Binding declaratively attaches a transformer to a collection, routing
// its output into an index. While PENDING the backfill is still running;
// ON bindings receive document events; OFF bindings ignore events and
// discard in-flight results at commit time.
type Binding struct {
	BindingID         int64     `json:"binding_id" gorm:"primaryKey;autoIncrement"`
	CollectionID      string    `json:"collection_id" gorm:"type:varchar(56);index;not null"`
	TransformerID     string    `json:"transformer_id" gorm:"type:varchar(255);not null"`
	IndexID           string    `json:"index_id" gorm:"type:varchar(56);not null"`
	Description       string    `json:"description" gorm:"type:varchar(255)"`
	ExecutionParams   JSONMap   `json:"execution_params,omitempty" gorm:"type:json"`
	TransformerParams JSONMap   `json:"transformer_params,omitempty" gorm:"type:json"`
	Filter            *Filter   `json:"filter,omitempty" gorm:"type:json"`
	Status            string    `json:"status" gorm:"type:varchar(16);index;default:'pending'"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Binding.
func (Binding) TableName() string {
	return "bindings"
}

// IndexFieldsProjection returns the declared output field projection from
// transformer_params, or nil when the binding projects all schema fields.
func (b *Binding) IndexFieldsProjection() []string {
	if b.TransformerParams == nil {
		return nil
	}
	raw, ok := b.TransformerParams["index_fields"]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			fields = append(fields, s)
		}
	}
	return fields
}

// BindingList contains a list of bindings.
type BindingList struct {
	TotalCount int64      `json:"totalCount"`
	Items      []*Binding `json:"items"`
}
