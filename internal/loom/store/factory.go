package store

import (
	"gorm.io/gorm"

	"github.com/loomhq/loom/internal/model"
)

// datastore implements the Factory interface over a GORM connection.
type datastore struct {
	db *gorm.DB
}

// NewFactory creates a storage factory backed by db.
func NewFactory(db *gorm.DB) Factory {
	return &datastore{db: db}
}

// Collections returns the collection store.
func (ds *datastore) Collections() CollectionStore {
	return newCollections(ds.db)
}

// Documents returns the document store.
func (ds *datastore) Documents() DocumentStore {
	return newDocuments(ds.db)
}

// Transformers returns the transformer store.
func (ds *datastore) Transformers() TransformerStore {
	return newTransformers(ds.db)
}

// Indexes returns the index store.
func (ds *datastore) Indexes() IndexStore {
	return newIndexes(ds.db)
}

// Bindings returns the binding store.
func (ds *datastore) Bindings() BindingStore {
	return newBindings(ds.db)
}

// Runs returns the binding run store.
func (ds *datastore) Runs() RunStore {
	return newRuns(ds.db)
}

// Records returns the index record store.
func (ds *datastore) Records() RecordStore {
	return newRecords(ds.db)
}

// AutoMigrate migrates the catalog tables. Per-index record tables are
// created by IndexStore.Create, not here.
func (ds *datastore) AutoMigrate() error {
	return ds.db.AutoMigrate(
		&model.Collection{},
		&model.Document{},
		&model.Transformer{},
		&model.Index{},
		&model.Binding{},
		&model.BindingRun{},
	)
}

// Close closes the underlying connection.
func (ds *datastore) Close() error {
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
