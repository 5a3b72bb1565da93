package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/loomhq/loom/internal/model"
)

type indexes struct {
	db *gorm.DB
}

func newIndexes(db *gorm.DB) *indexes {
	return &indexes{db}
}

// Create creates the index row and its physical record table. The table
// gets a unique key on (document_id, binding_id, ordinal) so concurrent
// record writers serialize at the storage layer.
func (i *indexes) Create(ctx context.Context, idx *model.Index) error {
	if idx.IndexTableName == "" {
		idx.IndexTableName = model.RecordTableName(idx.IndexID)
	}

	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(idx).Error; err != nil {
			return err
		}
		if err := tx.Table(idx.IndexTableName).AutoMigrate(&model.IndexRecord{}); err != nil {
			return err
		}
		// Index names are global in PostgreSQL, so derive them from
		// the table name.
		ddl := fmt.Sprintf(
			"CREATE UNIQUE INDEX IF NOT EXISTS uq_%s_doc_binding_ord ON %s (document_id, binding_id, ordinal)",
			idx.IndexTableName, idx.IndexTableName,
		)
		return tx.Exec(ddl).Error
	})
}

// Delete deletes the index row and drops its record table.
func (i *indexes) Delete(ctx context.Context, indexID string) error {
	idx, err := i.Get(ctx, indexID)
	if err != nil {
		return err
	}
	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("index_id = ?", indexID).Delete(&model.Index{}).Error; err != nil {
			return err
		}
		return tx.Migrator().DropTable(idx.IndexTableName)
	})
}

// Get retrieves an index by id.
func (i *indexes) Get(ctx context.Context, indexID string) (*model.Index, error) {
	var idx model.Index
	if err := i.db.WithContext(ctx).Where("index_id = ?", indexID).First(&idx).Error; err != nil {
		return nil, err
	}
	return &idx, nil
}

// List lists indexes with pagination.
func (i *indexes) List(ctx context.Context, offset, limit int) (int64, []*model.Index, error) {
	var count int64
	var items []*model.Index

	if err := i.db.WithContext(ctx).Model(&model.Index{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}

	if err := i.db.WithContext(ctx).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return count, items, nil
}
