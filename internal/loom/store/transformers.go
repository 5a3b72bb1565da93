package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/loomhq/loom/internal/model"
)

type transformers struct {
	db *gorm.DB
}

func newTransformers(db *gorm.DB) *transformers {
	return &transformers{db}
}

// Create creates a new transformer.
func (t *transformers) Create(ctx context.Context, transformer *model.Transformer) error {
	return t.db.WithContext(ctx).Create(transformer).Error
}

// Update updates an existing transformer.
func (t *transformers) Update(ctx context.Context, transformer *model.Transformer) error {
	return t.db.WithContext(ctx).Save(transformer).Error
}

// Delete deletes a transformer by id.
func (t *transformers) Delete(ctx context.Context, transformerID string) error {
	return t.db.WithContext(ctx).Where("transformer_id = ?", transformerID).Delete(&model.Transformer{}).Error
}

// Get retrieves a transformer by id.
func (t *transformers) Get(ctx context.Context, transformerID string) (*model.Transformer, error) {
	var transformer model.Transformer
	if err := t.db.WithContext(ctx).Where("transformer_id = ?", transformerID).First(&transformer).Error; err != nil {
		return nil, err
	}
	return &transformer, nil
}

// List lists transformers with pagination.
func (t *transformers) List(ctx context.Context, offset, limit int) (int64, []*model.Transformer, error) {
	var count int64
	var items []*model.Transformer

	if err := t.db.WithContext(ctx).Model(&model.Transformer{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}

	if err := t.db.WithContext(ctx).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return count, items, nil
}
