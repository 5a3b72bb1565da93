package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/loomhq/loom/internal/model"
)

type runs struct {
	db *gorm.DB
}

func newRuns(db *gorm.DB) *runs {
	return &runs{db}
}

// MarkScheduled upserts the fencing marker for a (document, binding)
// pair. A marker with a newer version wins: the call returns false and
// writes nothing.
func (r *runs) MarkScheduled(ctx context.Context, documentID string, bindingID int64, version int64, taskID string) (bool, error) {
	scheduled := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.BindingRun
		err := tx.Where("document_id = ? AND binding_id = ?", documentID, bindingID).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			scheduled = true
			return tx.Create(&model.BindingRun{
				DocumentID: documentID,
				BindingID:  bindingID,
				Version:    version,
				State:      model.RunStateScheduled,
				TaskID:     taskID,
			}).Error
		case err != nil:
			return err
		}

		if existing.Version > version {
			return nil
		}
		scheduled = true
		return tx.Model(&model.BindingRun{}).
			Where("document_id = ? AND binding_id = ?", documentID, bindingID).
			Updates(map[string]any{
				"version": version,
				"state":   model.RunStateScheduled,
				"task_id": taskID,
				"error":   "",
				"stack":   "",
			}).Error
	})
	return scheduled, err
}

// SetState updates the run state for the pair at the given version. A
// marker that has moved to a newer version is left untouched.
func (r *runs) SetState(ctx context.Context, documentID string, bindingID int64, version int64, state, errMsg, stack string) error {
	return r.db.WithContext(ctx).Model(&model.BindingRun{}).
		Where("document_id = ? AND binding_id = ? AND version <= ?", documentID, bindingID, version).
		Updates(map[string]any{
			"version": version,
			"state":   state,
			"error":   errMsg,
			"stack":   stack,
		}).Error
}

// Get retrieves the run marker for a pair.
func (r *runs) Get(ctx context.Context, documentID string, bindingID int64) (*model.BindingRun, error) {
	var run model.BindingRun
	if err := r.db.WithContext(ctx).
		Where("document_id = ? AND binding_id = ?", documentID, bindingID).
		First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// CountPending counts runs for the binding still in SCHEDULED state.
func (r *runs) CountPending(ctx context.Context, bindingID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BindingRun{}).
		Where("binding_id = ? AND state = ?", bindingID, model.RunStateScheduled).
		Count(&count).Error
	return count, err
}

// DeleteByBinding removes all run markers for a binding.
func (r *runs) DeleteByBinding(ctx context.Context, bindingID int64) error {
	return r.db.WithContext(ctx).Where("binding_id = ?", bindingID).Delete(&model.BindingRun{}).Error
}

// DeleteByDocument removes all run markers for a document.
func (r *runs) DeleteByDocument(ctx context.Context, documentID string) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.BindingRun{}).Error
}
