package models

// MediaKind represents the kind of media (movie or tv show)
type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindTV    MediaKind = "tv"
)

// ProviderKind identifies which catalog provider a list belongs to
type ProviderKind string

const (
	ProviderMDBList ProviderKind = "mdblist"
	ProviderTrakt   ProviderKind = "trakt"
	ProviderIMDB    ProviderKind = "imdb"
)

// TriggerKind represents how a processing run was started
type TriggerKind string

const (
	TriggerManual    TriggerKind = "manual"
	TriggerScheduled TriggerKind = "scheduled"
)

// ExecutionStatus represents the state of a processing execution
type ExecutionStatus string

const (
	ExecutionRunning ExecutionStatus = "running"
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionError   ExecutionStatus = "error"
)
