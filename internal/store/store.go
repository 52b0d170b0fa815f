package store

import "context"

// Fixed snapshot keys. Rooms and snippets are persisted independently so a
// corrupt snapshot of one never takes the other down with it.
const (
	KeyRooms    = "liveshare:rooms"
	KeySnippets = "liveshare:snippets"
)

// Store is a persistent key-value snapshot store. Values are opaque blobs;
// callers own serialization. It is the stand-in for per-profile browser
// storage, so there is one Store per machine/profile, shared by every
// process that simulates a tab.
type Store interface {
	// Load returns the value stored under key. The second return is false
	// when the key has never been saved.
	Load(ctx context.Context, key string) ([]byte, bool, error)

	// Save overwrites the value stored under key.
	Save(ctx context.Context, key string, value []byte) error

	// Close releases the underlying resources.
	Close() error
}
