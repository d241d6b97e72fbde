package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// List operations

// CreateList creates a new media list
func (db *Database) CreateList(list *MediaList) error {
	list.CreatedAt = time.Now()
	list.UpdatedAt = time.Now()
	return db.store.Insert(bolthold.NextSequence(), list)
}

// UpdateList updates an existing media list
func (db *Database) UpdateList(list *MediaList) error {
	list.UpdatedAt = time.Now()
	return db.store.Update(list.ID, list)
}

// DeleteList deletes a media list by ID
func (db *Database) DeleteList(id uint64) error {
	return db.store.Delete(id, &MediaList{})
}

// GetListByID retrieves a list by ID scoped to its owner
func (db *Database) GetListByID(id uint64, userID uint64) (*MediaList, error) {
	var list MediaList
	if err := db.store.Get(id, &list); err != nil {
		return nil, err
	}
	if list.UserID != userID {
		return nil, bolthold.ErrNotFound
	}
	return &list, nil
}

// GetAllLists retrieves all media lists
func (db *Database) GetAllLists() ([]*MediaList, error) {
	var lists []*MediaList
	err := db.store.Find(&lists, nil)
	return lists, err
}

// GetEnabledLists retrieves all enabled lists for a user
func (db *Database) GetEnabledLists(userID uint64) ([]*MediaList, error) {
	var lists []*MediaList
	err := db.store.Find(&lists, bolthold.Where("Enabled").Eq(true).And("UserID").Eq(userID))
	return lists, err
}

// GetScheduledLists retrieves all enabled lists carrying their own cron expression
func (db *Database) GetScheduledLists() ([]*MediaList, error) {
	var lists []*MediaList
	err := db.store.Find(&lists, bolthold.Where("Enabled").Eq(true).And("Schedule").Ne(""))
	return lists, err
}

// Cache operations

// FilterUncached returns only items whose TMDB id has never been requested.
// The check is against the entire cache, never scoped to a list: the same
// movie surfaced by two lists must be requested at most once in total.
func (db *Database) FilterUncached(items []MediaItem) ([]MediaItem, error) {
	var cached []*CachedItem
	if err := db.store.Find(&cached, nil); err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(cached))
	for _, c := range cached {
		seen[c.TMDBID] = struct{}{}
	}

	var unseen []MediaItem
	for _, item := range items {
		if _, ok := seen[item.TMDBID]; !ok {
			unseen = append(unseen, item)
		}
	}
	return unseen, nil
}

// RecordCached inserts one cache row per item, attributed to listID.
// A unique-constraint violation means another run already recorded the id
// and is treated as success, not error.
func (db *Database) RecordCached(listID uint64, items []MediaItem) error {
	for _, item := range items {
		row := &CachedItem{
			TMDBID:    item.TMDBID,
			ListID:    listID,
			Title:     item.Title,
			Kind:      item.Kind,
			FetchedAt: time.Now(),
		}
		err := db.store.Insert(bolthold.NextSequence(), row)
		if err != nil && !errors.Is(err, bolthold.ErrUniqueExists) {
			return fmt.Errorf("failed to cache item %d: %w", item.TMDBID, err)
		}
	}
	return nil
}

// GetCachedItems retrieves all cached items
func (db *Database) GetCachedItems() ([]*CachedItem, error) {
	var items []*CachedItem
	err := db.store.Find(&items, nil)
	return items, err
}

// CountCached returns the number of cached items
func (db *Database) CountCached() (int, error) {
	var items []*CachedItem
	if err := db.store.Find(&items, nil); err != nil {
		return 0, err
	}
	return len(items), nil
}

// ClearCache removes every cached item. Manual reset only.
func (db *Database) ClearCache() error {
	return db.store.DeleteMatching(&CachedItem{}, nil)
}

// Execution operations

// CreateExecution creates a new processing execution record
func (db *Database) CreateExecution(exec *ProcessingExecution) error {
	return db.store.Insert(bolthold.NextSequence(), exec)
}

// UpdateExecution updates an existing execution record
func (db *Database) UpdateExecution(exec *ProcessingExecution) error {
	return db.store.Update(exec.ID, exec)
}

// GetExecutionByID retrieves an execution by ID
func (db *Database) GetExecutionByID(id uint64) (*ProcessingExecution, error) {
	var exec ProcessingExecution
	if err := db.store.Get(id, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// GetExecutionsByBatchID retrieves all executions belonging to one batch run
func (db *Database) GetExecutionsByBatchID(batchID string) ([]*ProcessingExecution, error) {
	var execs []*ProcessingExecution
	err := db.store.Find(&execs, bolthold.Where("BatchID").Eq(batchID))
	return execs, err
}

// GetRecentExecutions retrieves the most recent executions, newest first
func (db *Database) GetRecentExecutions(limit int) ([]*ProcessingExecution, error) {
	var execs []*ProcessingExecution
	err := db.store.Find(&execs, bolthold.Where("ListID").Ge(uint64(0)).SortBy("StartedAt").Reverse().Limit(limit))
	return execs, err
}
