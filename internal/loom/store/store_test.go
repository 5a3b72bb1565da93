package store

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/loomhq/loom/internal/model"
	"github.com/loomhq/loom/pkg/errors"
)

func setupTestFactory(t *testing.T) Factory {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	factory := NewFactory(db)
	require.NoError(t, factory.AutoMigrate())
	t.Cleanup(func() { _ = factory.Close() })
	return factory
}

func seedPair(t *testing.T, f Factory) (*model.Index, *model.Binding, *model.Document) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.Collections().Create(ctx, &model.Collection{CollectionID: "docs"}))
	doc := &model.Document{DocumentID: "doc1", CollectionID: "docs", Content: "hello world"}
	require.NoError(t, f.Documents().Create(ctx, doc))

	idx := &model.Index{
		IndexID: "counts",
		IndexFields: model.IndexFields{
			"word_count": {Type: model.FieldTypeInteger},
		},
	}
	require.NoError(t, f.Indexes().Create(ctx, idx))

	binding := &model.Binding{
		CollectionID:  "docs",
		TransformerID: "text.counter.word_counter",
		IndexID:       "counts",
		Status:        model.BindingStatusOn,
	}
	require.NoError(t, f.Bindings().Create(ctx, binding))
	return idx, binding, doc
}

func TestCollectionCRUD(t *testing.T) {
	f := setupTestFactory(t)
	ctx := context.Background()

	require.NoError(t, f.Collections().Create(ctx, &model.Collection{
		CollectionID: "docs",
		Description:  "test collection",
		Config:       model.JSONMap{"store_files": false},
	}))

	got, err := f.Collections().Get(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, "test collection", got.Description)
	assert.Equal(t, false, got.Config["store_files"])

	got.Description = "updated"
	require.NoError(t, f.Collections().Update(ctx, got))

	count, items, err := f.Collections().List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "updated", items[0].Description)

	require.NoError(t, f.Collections().Delete(ctx, "docs"))
	_, err = f.Collections().Get(ctx, "docs")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDocumentWalk(t *testing.T) {
	f := setupTestFactory(t)
	ctx := context.Background()

	require.NoError(t, f.Collections().Create(ctx, &model.Collection{CollectionID: "docs"}))
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, f.Documents().Create(ctx, &model.Document{
			DocumentID: id, CollectionID: "docs", Content: id,
		}))
	}

	var seen []string
	err := f.Documents().Walk(ctx, "docs", 2, func(doc *model.Document) bool {
		seen = append(seen, doc.DocumentID)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, seen)

	seen = nil
	err = f.Documents().Walk(ctx, "docs", 2, func(doc *model.Document) bool {
		seen = append(seen, doc.DocumentID)
		return len(seen) < 3
	})
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestIndexCreatePhysicalTable(t *testing.T) {
	f := setupTestFactory(t)
	ctx := context.Background()

	idx := &model.Index{
		IndexID: "summaries",
		IndexFields: model.IndexFields{
			"summary": {Type: model.FieldTypeText},
		},
	}
	require.NoError(t, f.Indexes().Create(ctx, idx))
	assert.Equal(t, "index__summaries", idx.IndexTableName)

	got, err := f.Indexes().Get(ctx, "summaries")
	require.NoError(t, err)
	assert.Equal(t, model.FieldTypeText, got.IndexFields["summary"].Type)

	// The physical table must accept queries immediately.
	count, _, err := f.Records().List(ctx, got, "", 0, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMarkScheduledFencing(t *testing.T) {
	f := setupTestFactory(t)
	ctx := context.Background()
	_, binding, doc := seedPair(t, f)

	ok, err := f.Runs().MarkScheduled(ctx, doc.DocumentID, binding.BindingID, 100, "task1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Older version loses.
	ok, err = f.Runs().MarkScheduled(ctx, doc.DocumentID, binding.BindingID, 50, "task2")
	require.NoError(t, err)
	assert.False(t, ok)

	run, err := f.Runs().Get(ctx, doc.DocumentID, binding.BindingID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), run.Version)
	assert.Equal(t, "task1", run.TaskID)

	// Newer version wins.
	ok, err = f.Runs().MarkScheduled(ctx, doc.DocumentID, binding.BindingID, 200, "task3")
	require.NoError(t, err)
	assert.True(t, ok)

	pending, err := f.Runs().CountPending(ctx, binding.BindingID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestCommitReplacesRecords(t *testing.T) {
	f := setupTestFactory(t)
	ctx := context.Background()
	idx, binding, doc := seedPair(t, f)

	_, err := f.Runs().MarkScheduled(ctx, doc.DocumentID, binding.BindingID, 100, "task1")
	require.NoError(t, err)

	drafts := []*model.RecordDraft{
		{Fields: model.JSONMap{"word_count": 2}},
		{Fields: model.JSONMap{"word_count": 3}},
	}
	require.NoError(t, f.Records().Commit(ctx, idx, binding.BindingID, doc.DocumentID, 100, "task1", drafts))

	count, items, err := f.Records().List(ctx, idx, doc.DocumentID, binding.BindingID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 0, items[0].Ordinal)
	assert.Equal(t, 1, items[1].Ordinal)

	// A smaller batch at a newer version replaces and shrinks.
	_, err = f.Runs().MarkScheduled(ctx, doc.DocumentID, binding.BindingID, 200, "task2")
	require.NoError(t, err)
	require.NoError(t, f.Records().Commit(ctx, idx, binding.BindingID, doc.DocumentID, 200, "task2",
		[]*model.RecordDraft{{Fields: model.JSONMap{"word_count": 5}}}))

	count, items, err = f.Records().List(ctx, idx, doc.DocumentID, binding.BindingID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, int64(200), items[0].Version)

	run, err := f.Runs().Get(ctx, doc.DocumentID, binding.BindingID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStateApplied, run.State)
}

func TestCommitStaleVersionRejected(t *testing.T) {
	f := setupTestFactory(t)
	ctx := context.Background()
	idx, binding, doc := seedPair(t, f)

	_, err := f.Runs().MarkScheduled(ctx, doc.DocumentID, binding.BindingID, 200, "task2")
	require.NoError(t, err)

	err = f.Records().Commit(ctx, idx, binding.BindingID, doc.DocumentID, 100, "task1",
		[]*model.RecordDraft{{Fields: model.JSONMap{"word_count": 2}}})
	assert.ErrorIs(t, err, errors.ErrStaleCommit)

	count, _, err := f.Records().List(ctx, idx, doc.DocumentID, binding.BindingID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCommitSuppressedWhenBindingOff(t *testing.T) {
	f := setupTestFactory(t)
	ctx := context.Background()
	idx, binding, doc := seedPair(t, f)

	_, err := f.Runs().MarkScheduled(ctx, doc.DocumentID, binding.BindingID, 100, "task1")
	require.NoError(t, err)

	require.NoError(t, f.Bindings().UpdateStatus(ctx, binding.BindingID, model.BindingStatusOff))

	err = f.Records().Commit(ctx, idx, binding.BindingID, doc.DocumentID, 100, "task1",
		[]*model.RecordDraft{{Fields: model.JSONMap{"word_count": 2}}})
	assert.ErrorIs(t, err, errors.ErrBindingOff)

	count, _, err := f.Records().List(ctx, idx, doc.DocumentID, binding.BindingID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCommitRejectedWhenDocumentDeleted(t *testing.T) {
	f := setupTestFactory(t)
	ctx := context.Background()
	idx, binding, doc := seedPair(t, f)

	_, err := f.Runs().MarkScheduled(ctx, doc.DocumentID, binding.BindingID, 100, "task1")
	require.NoError(t, err)

	// Document cleanup and delete land while the run is in flight.
	require.NoError(t, f.Records().DeleteByDocument(ctx, idx, doc.DocumentID))
	require.NoError(t, f.Runs().DeleteByDocument(ctx, doc.DocumentID))
	require.NoError(t, f.Documents().Delete(ctx, doc.DocumentID))

	err = f.Records().Commit(ctx, idx, binding.BindingID, doc.DocumentID, 100, "task1",
		[]*model.RecordDraft{{Fields: model.JSONMap{"word_count": 2}}})
	assert.ErrorIs(t, err, errors.ErrDocumentGone)

	count, _, err := f.Records().List(ctx, idx, doc.DocumentID, binding.BindingID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCommitSkipsInvalidDrafts(t *testing.T) {
	f := setupTestFactory(t)
	ctx := context.Background()
	idx, binding, doc := seedPair(t, f)

	_, err := f.Runs().MarkScheduled(ctx, doc.DocumentID, binding.BindingID, 100, "task1")
	require.NoError(t, err)

	drafts := []*model.RecordDraft{
		{Fields: model.JSONMap{"word_count": 2}},
		{Invalid: true, Reason: "missing required field word_count"},
		{Fields: model.JSONMap{"word_count": 7}},
	}
	require.NoError(t, f.Records().Commit(ctx, idx, binding.BindingID, doc.DocumentID, 100, "task1", drafts))

	count, items, err := f.Records().List(ctx, idx, doc.DocumentID, binding.BindingID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 0, items[0].Ordinal)
	assert.Equal(t, 1, items[1].Ordinal)
}

func TestRecordCleanup(t *testing.T) {
	f := setupTestFactory(t)
	ctx := context.Background()
	idx, binding, doc := seedPair(t, f)

	_, err := f.Runs().MarkScheduled(ctx, doc.DocumentID, binding.BindingID, 100, "task1")
	require.NoError(t, err)
	require.NoError(t, f.Records().Commit(ctx, idx, binding.BindingID, doc.DocumentID, 100, "task1",
		[]*model.RecordDraft{{Fields: model.JSONMap{"word_count": 2}}}))

	require.NoError(t, f.Records().DeleteByBinding(ctx, idx, binding.BindingID))
	count, _, err := f.Records().List(ctx, idx, "", binding.BindingID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
