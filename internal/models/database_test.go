package models

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(filepath.Join(t.TempDir(), "listarr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestRecordCachedIgnoresDuplicates(t *testing.T) {
	db := openTestDB(t)

	items := []MediaItem{
		{Title: "Movie X", Kind: MediaKindMovie, TMDBID: 100},
		{Title: "Movie Y", Kind: MediaKindMovie, TMDBID: 200},
	}

	require.NoError(t, db.RecordCached(1, items))

	// A second run racing on the same ids must not surface an error
	require.NoError(t, db.RecordCached(2, items))

	cached, err := db.GetCachedItems()
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	// Attribution stays with the first writer
	for _, c := range cached {
		assert.Equal(t, uint64(1), c.ListID)
	}
}

func TestFilterUncachedIsGlobal(t *testing.T) {
	db := openTestDB(t)

	// Cached under list 7; the filter must still drop it for any other list
	require.NoError(t, db.RecordCached(7, []MediaItem{
		{Title: "Movie X", Kind: MediaKindMovie, TMDBID: 100},
	}))

	unseen, err := db.FilterUncached([]MediaItem{
		{Title: "Movie X", Kind: MediaKindMovie, TMDBID: 100},
		{Title: "Movie Z", Kind: MediaKindMovie, TMDBID: 300},
	})
	require.NoError(t, err)

	require.Len(t, unseen, 1)
	assert.Equal(t, int64(300), unseen[0].TMDBID)
}

func TestClearCache(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.RecordCached(1, []MediaItem{
		{Title: "Movie X", Kind: MediaKindMovie, TMDBID: 100},
	}))
	require.NoError(t, db.ClearCache())

	count, err := db.CountCached()
	require.NoError(t, err)
	assert.Zero(t, count)

	// Cleared ids are requestable again
	unseen, err := db.FilterUncached([]MediaItem{
		{Title: "Movie X", Kind: MediaKindMovie, TMDBID: 100},
	})
	require.NoError(t, err)
	assert.Len(t, unseen, 1)
}

func TestGetListByIDScopedToOwner(t *testing.T) {
	db := openTestDB(t)

	list := &MediaList{Name: "Top Movies", Provider: ProviderMDBList, SourceURL: "https://mdblist.com/lists/u/top", UserID: 1, Enabled: true, MaxItems: 10}
	require.NoError(t, db.CreateList(list))

	found, err := db.GetListByID(list.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Top Movies", found.Name)

	_, err = db.GetListByID(list.ID, 2)
	assert.Error(t, err)
}

func TestGetScheduledLists(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.CreateList(&MediaList{Name: "scheduled", Provider: ProviderMDBList, SourceURL: "u1", UserID: 1, Enabled: true, Schedule: "0 * * * *", MaxItems: 10}))
	require.NoError(t, db.CreateList(&MediaList{Name: "global-only", Provider: ProviderMDBList, SourceURL: "u2", UserID: 1, Enabled: true, MaxItems: 10}))
	require.NoError(t, db.CreateList(&MediaList{Name: "disabled", Provider: ProviderMDBList, SourceURL: "u3", UserID: 1, Enabled: false, Schedule: "0 * * * *", MaxItems: 10}))

	lists, err := db.GetScheduledLists()
	require.NoError(t, err)

	require.Len(t, lists, 1)
	assert.Equal(t, "scheduled", lists[0].Name)
}

func TestGetExecutionsByBatchID(t *testing.T) {
	db := openTestDB(t)

	batchID := NewBatchID(TriggerScheduled)
	for listID := uint64(1); listID <= 3; listID++ {
		require.NoError(t, db.CreateExecution(&ProcessingExecution{
			ListID:  listID,
			BatchID: batchID,
			Trigger: TriggerScheduled,
			Status:  ExecutionRunning,
		}))
	}
	require.NoError(t, db.CreateExecution(&ProcessingExecution{
		ListID:  9,
		BatchID: NewBatchID(TriggerManual),
		Trigger: TriggerManual,
		Status:  ExecutionRunning,
	}))

	execs, err := db.GetExecutionsByBatchID(batchID)
	require.NoError(t, err)
	assert.Len(t, execs, 3)
}

func TestItemLimitClamps(t *testing.T) {
	assert.Equal(t, 1, (&MediaList{MaxItems: 0}).ItemLimit())
	assert.Equal(t, 1, (&MediaList{MaxItems: -5}).ItemLimit())
	assert.Equal(t, 25, (&MediaList{MaxItems: 25}).ItemLimit())
	assert.Equal(t, 50, (&MediaList{MaxItems: 200}).ItemLimit())
}

func TestNewBatchIDFormat(t *testing.T) {
	id := NewBatchID(TriggerManual)
	assert.Regexp(t, `^manual-\d+-[0-9a-f]{8}$`, id)

	other := NewBatchID(TriggerManual)
	assert.NotEqual(t, id, other)
}
