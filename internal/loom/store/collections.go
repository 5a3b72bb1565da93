package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/loomhq/loom/internal/model"
)

type collections struct {
	db *gorm.DB
}

func newCollections(db *gorm.DB) *collections {
	return &collections{db}
}

// Create creates a new collection.
func (c *collections) Create(ctx context.Context, collection *model.Collection) error {
	return c.db.WithContext(ctx).Create(collection).Error
}

// Update updates an existing collection.
func (c *collections) Update(ctx context.Context, collection *model.Collection) error {
	return c.db.WithContext(ctx).Save(collection).Error
}

// Delete deletes a collection by id.
func (c *collections) Delete(ctx context.Context, collectionID string) error {
	return c.db.WithContext(ctx).Where("collection_id = ?", collectionID).Delete(&model.Collection{}).Error
}

// Get retrieves a collection by id.
func (c *collections) Get(ctx context.Context, collectionID string) (*model.Collection, error) {
	var collection model.Collection
	if err := c.db.WithContext(ctx).Where("collection_id = ?", collectionID).First(&collection).Error; err != nil {
		return nil, err
	}
	return &collection, nil
}

// List lists collections with pagination.
func (c *collections) List(ctx context.Context, offset, limit int) (int64, []*model.Collection, error) {
	var count int64
	var items []*model.Collection

	if err := c.db.WithContext(ctx).Model(&model.Collection{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}

	if err := c.db.WithContext(ctx).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return count, items, nil
}
