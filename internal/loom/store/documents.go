package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/loomhq/loom/internal/model"
)

type documents struct {
	db *gorm.DB
}

func newDocuments(db *gorm.DB) *documents {
	return &documents{db}
}

// Create creates a new document.
func (d *documents) Create(ctx context.Context, doc *model.Document) error {
	return d.db.WithContext(ctx).Create(doc).Error
}

// Update updates an existing document.
func (d *documents) Update(ctx context.Context, doc *model.Document) error {
	return d.db.WithContext(ctx).Save(doc).Error
}

// Delete deletes a document by id.
func (d *documents) Delete(ctx context.Context, documentID string) error {
	return d.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Document{}).Error
}

// Get retrieves a document by id.
func (d *documents) Get(ctx context.Context, documentID string) (*model.Document, error) {
	var doc model.Document
	if err := d.db.WithContext(ctx).Where("document_id = ?", documentID).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// List lists documents, optionally scoped to a collection.
func (d *documents) List(ctx context.Context, collectionID string, offset, limit int) (int64, []*model.Document, error) {
	var count int64
	var items []*model.Document

	query := d.db.WithContext(ctx).Model(&model.Document{})
	if collectionID != "" {
		query = query.Where("collection_id = ?", collectionID)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&count).Error; err != nil {
		return 0, nil, err
	}

	if err := query.Order("document_id").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return count, items, nil
}

// Walk iterates all documents of a collection in document_id order,
// reading batchSize rows at a time so backfills never load a whole
// collection into memory.
func (d *documents) Walk(ctx context.Context, collectionID string, batchSize int, fn func(*model.Document) bool) error {
	if batchSize <= 0 {
		batchSize = 200
	}

	lastID := ""
	for {
		var batch []*model.Document
		query := d.db.WithContext(ctx).
			Where("collection_id = ?", collectionID).
			Order("document_id").
			Limit(batchSize)
		if lastID != "" {
			query = query.Where("document_id > ?", lastID)
		}
		if err := query.Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		for _, doc := range batch {
			if !fn(doc) {
				return nil
			}
		}
		lastID = batch[len(batch)-1].DocumentID
	}
}
