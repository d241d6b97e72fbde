package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaItem is a normalized catalog entry as returned by a provider fetcher.
// The TMDB id is the system-wide uniqueness key; two items are equal iff
// their TMDBID matches. Never mutated after construction.
type MediaItem struct {
	Title  string
	Year   int // 0 when the provider did not supply one
	Kind   MediaKind
	TMDBID int64
}

// MediaList represents a user-configured list source
type MediaList struct {
	ID         uint64 `boltholdKey:"ID"`
	Name       string
	Provider   ProviderKind
	SourceURL  string
	DisplayURL string
	Enabled    bool   `boltholdIndex:"Enabled"`
	MaxItems   int    // 1-50, clamped on read
	Schedule   string // per-list cron expression; empty means global schedule only
	UserID     uint64

	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	minListItems = 1
	maxListItems = 50
)

// ItemLimit returns MaxItems clamped to the allowed range.
func (l *MediaList) ItemLimit() int {
	if l.MaxItems < minListItems {
		return minListItems
	}
	if l.MaxItems > maxListItems {
		return maxListItems
	}
	return l.MaxItems
}

// CachedItem records a TMDB id that was successfully requested downstream.
// The unique index is what enforces the at-most-once invariant under
// concurrent runs.
type CachedItem struct {
	ID     uint64 `boltholdKey:"ID"`
	TMDBID int64  `boltholdUnique:"TMDBID"`
	ListID uint64 // first list that surfaced the item; bookkeeping only
	Title  string
	Kind   MediaKind

	FetchedAt time.Time
}

// ProcessingExecution is the audit record for one list within one run.
// Created as running, transitions exactly once to success or error.
type ProcessingExecution struct {
	ID      uint64 `boltholdKey:"ID"`
	ListID  uint64 `boltholdIndex:"ListID"`
	BatchID string `boltholdIndex:"BatchID"`
	Trigger TriggerKind
	Status  ExecutionStatus `boltholdIndex:"Status"`

	StartedAt   time.Time
	CompletedAt *time.Time

	ItemsFound     int
	ItemsRequested int
	ItemsFailed    int
	ErrorMessage   string
}

// NewBatchID generates a batch identifier grouping all per-list executions
// of one triggered run: {trigger}-{unixMillis}-{token}.
func NewBatchID(trigger TriggerKind) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", trigger, time.Now().UnixMilli(), token)
}
