package model

import (
	"time"
)

// Binding run states for a (document, binding) pair.
const (
	RunStateScheduled = "scheduled"
	RunStateApplied   = "applied"
	RunStateFailed    = "failed"
	RunStateSkipped   = "skipped"
)

// BindingRun is the durable fencing marker for one (document, binding)
// pair. Version is the document version the run was scheduled against;
// commits against an older version than the stored one are rejected.
type BindingRun struct {
	DocumentID string    `json:"document_id" gorm:"primaryKey;type:varchar(64)"`
	BindingID  int64     `json:"binding_id" gorm:"primaryKey"`
	Version    int64     `json:"version" gorm:"not null"`
	State      string    `json:"state" gorm:"type:varchar(16);not null"`
	TaskID     string    `json:"task_id" gorm:"type:varchar(64)"`
	Error      string    `json:"error,omitempty" gorm:"type:text"`
	Stack      string    `json:"stack,omitempty" gorm:"type:text"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for BindingRun.
func (BindingRun) TableName() string {
	return "binding_runs"
}
