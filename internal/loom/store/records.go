package store

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/loomhq/loom/internal/model"
	"github.com/loomhq/loom/pkg/errors"
	"github.com/loomhq/loom/pkg/id"
)

type records struct {
	db *gorm.DB
}

func newRecords(db *gorm.DB) *records {
	return &records{db}
}

// Commit transactionally replaces records for a (document, binding)
// pair. Inside the transaction it re-reads the binding status, the
// document row, and the fencing marker; ErrBindingOff, ErrDocumentGone,
// and ErrStaleCommit are returned before any record write happens.
func (rc *records) Commit(ctx context.Context, idx *model.Index, bindingID int64, documentID string, version int64, taskID string, drafts []*model.RecordDraft) error {
	table := idx.IndexTableName

	return rc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var binding model.Binding
		if err := tx.Where("binding_id = ?", bindingID).First(&binding).Error; err != nil {
			return err
		}
		if binding.Status == model.BindingStatusOff || binding.Status == model.BindingStatusDetached {
			return errors.ErrBindingOff
		}

		// The document may have been deleted after the run read it; a
		// commit past that point would orphan its records.
		err := tx.Select("document_id").
			Where("document_id = ?", documentID).
			First(&model.Document{}).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrDocumentGone
		}
		if err != nil {
			return err
		}

		var run model.BindingRun
		err = tx.Where("document_id = ? AND binding_id = ?", documentID, bindingID).
			First(&run).Error
		if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && run.Version > version {
			return errors.ErrStaleCommit
		}

		ordinal := 0
		for _, draft := range drafts {
			if draft.Invalid {
				continue
			}
			rec := &model.IndexRecord{
				RecordID:   id.New(),
				DocumentID: documentID,
				BindingID:  bindingID,
				Ordinal:    ordinal,
				Version:    version,
				TaskID:     taskID,
				Fields:     draft.Fields,
				Embedding:  toJSONSlice(draft.Embedding),
			}
			err := tx.Table(table).Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "document_id"}, {Name: "binding_id"}, {Name: "ordinal"},
				},
				DoUpdates: clause.AssignmentColumns([]string{
					"version", "task_id", "fields", "embedding", "updated_at",
				}),
			}).Create(rec).Error
			if err != nil {
				return err
			}
			ordinal++
		}

		// Replace-on-success: drop rows beyond the new batch.
		if err := tx.Table(table).
			Where("document_id = ? AND binding_id = ? AND ordinal >= ?", documentID, bindingID, ordinal).
			Delete(&model.IndexRecord{}).Error; err != nil {
			return err
		}

		return tx.Model(&model.BindingRun{}).
			Where("document_id = ? AND binding_id = ? AND version <= ?", documentID, bindingID, version).
			Updates(map[string]any{
				"version": version,
				"state":   model.RunStateApplied,
				"task_id": taskID,
				"error":   "",
				"stack":   "",
			}).Error
	})
}

// List lists records in an index, optionally filtered by document and
// binding.
func (rc *records) List(ctx context.Context, idx *model.Index, documentID string, bindingID int64, offset, limit int) (int64, []*model.IndexRecord, error) {
	var count int64
	var items []*model.IndexRecord

	query := rc.db.WithContext(ctx).Table(idx.IndexTableName)
	if documentID != "" {
		query = query.Where("document_id = ?", documentID)
	}
	if bindingID != 0 {
		query = query.Where("binding_id = ?", bindingID)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&count).Error; err != nil {
		return 0, nil, err
	}

	if err := query.Order("document_id, binding_id, ordinal").
		Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return count, items, nil
}

// DeletePair removes the records for one (document, binding) pair.
func (rc *records) DeletePair(ctx context.Context, idx *model.Index, documentID string, bindingID int64) error {
	return rc.db.WithContext(ctx).Table(idx.IndexTableName).
		Where("document_id = ? AND binding_id = ?", documentID, bindingID).
		Delete(&model.IndexRecord{}).Error
}

// DeleteByBinding removes all records for a binding.
func (rc *records) DeleteByBinding(ctx context.Context, idx *model.Index, bindingID int64) error {
	return rc.db.WithContext(ctx).Table(idx.IndexTableName).
		Where("binding_id = ?", bindingID).
		Delete(&model.IndexRecord{}).Error
}

// DeleteByDocument removes all records for a document.
func (rc *records) DeleteByDocument(ctx context.Context, idx *model.Index, documentID string) error {
	return rc.db.WithContext(ctx).Table(idx.IndexTableName).
		Where("document_id = ?", documentID).
		Delete(&model.IndexRecord{}).Error
}

func toJSONSlice(vec []float64) model.JSONSlice {
	if vec == nil {
		return nil
	}
	out := make(model.JSONSlice, len(vec))
	for i, v := range vec {
		out[i] = v
	}
	return out
}
