package domain

import "context"

// PopularityProvider fetches the current crowd estimate for a place.
// A nil value with nil error means the provider had no estimate.
type PopularityProvider interface {
	CurrentPopularity(ctx context.Context, placeID string) (*int, error)
}

// StatusPublisher maintains the single live status message in the channel.
type StatusPublisher interface {
	Publish(text string) error
}

// MessageStateStore persists the identifier of the live status message.
// LastMessageID returns an empty string when no message was published yet.
type MessageStateStore interface {
	LastMessageID() (string, error)
	SaveMessageID(id string) error
}

// ReadingArchive appends immutable readings to the archive and returns the
// object path the reading was stored under.
type ReadingArchive interface {
	SaveReading(r Reading) (string, error)
}

// ArchiveReader lists and reads archived reading objects.
type ArchiveReader interface {
	List() ([]string, error)
	Read(path string) ([]byte, error)
}

// SyncRepo is the relational store the importer drains the archive into.
type SyncRepo interface {
	InitSchema(ctx context.Context) error
	GetOrCreateLocation(ctx context.Context, placeID string, info LocationInfo) (int64, error)
	// InsertReading reports whether the row was new; a duplicate
	// (location, timestamp) pair is not an error.
	InsertReading(ctx context.Context, locationID int64, r Reading, sourcePath string) (bool, error)
	IsSynced(ctx context.Context, path string) (bool, error)
	MarkSynced(ctx context.Context, path string) error
	ReadingsCount(ctx context.Context) (int, error)
}
