package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/loomhq/loom/internal/model"
)

type bindings struct {
	db *gorm.DB
}

func newBindings(db *gorm.DB) *bindings {
	return &bindings{db}
}

// Create creates a new binding.
func (b *bindings) Create(ctx context.Context, binding *model.Binding) error {
	return b.db.WithContext(ctx).Create(binding).Error
}

// Update updates an existing binding.
func (b *bindings) Update(ctx context.Context, binding *model.Binding) error {
	return b.db.WithContext(ctx).Save(binding).Error
}

// UpdateStatus sets only the binding status. Concurrent transitions
// resolve last-write-wins.
func (b *bindings) UpdateStatus(ctx context.Context, bindingID int64, status string) error {
	return b.db.WithContext(ctx).Model(&model.Binding{}).
		Where("binding_id = ?", bindingID).
		Update("status", status).Error
}

// Delete deletes a binding by id.
func (b *bindings) Delete(ctx context.Context, bindingID int64) error {
	return b.db.WithContext(ctx).Where("binding_id = ?", bindingID).Delete(&model.Binding{}).Error
}

// Get retrieves a binding by id.
func (b *bindings) Get(ctx context.Context, bindingID int64) (*model.Binding, error) {
	var binding model.Binding
	if err := b.db.WithContext(ctx).Where("binding_id = ?", bindingID).First(&binding).Error; err != nil {
		return nil, err
	}
	return &binding, nil
}

// List lists bindings, optionally scoped to a collection.
func (b *bindings) List(ctx context.Context, collectionID string, offset, limit int) (int64, []*model.Binding, error) {
	var count int64
	var items []*model.Binding

	query := b.db.WithContext(ctx).Model(&model.Binding{})
	if collectionID != "" {
		query = query.Where("collection_id = ?", collectionID)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&count).Error; err != nil {
		return 0, nil, err
	}

	if err := query.Order("binding_id").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return count, items, nil
}

// ListActive returns ON and PENDING bindings for a collection.
func (b *bindings) ListActive(ctx context.Context, collectionID string) ([]*model.Binding, error) {
	var items []*model.Binding
	err := b.db.WithContext(ctx).
		Where("collection_id = ? AND status IN ?", collectionID,
			[]string{model.BindingStatusOn, model.BindingStatusPending}).
		Order("binding_id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
