// Package snapshot persists the input-cell payloads of a reactive session so
// a client can reconnect and resume with the state it left behind. Only raw
// cell payloads are stored; derived expressions and observers are rebuilt by
// re-running the session program against the restored inputs.
package snapshot

import (
	"context"
	"time"
)

// Store is a snapshot persistence backend. Implementations must be safe for
// concurrent use; sessions on different goroutines share one store.
type Store interface {
	// Save persists a snapshot, overwriting any previous one for the same
	// session. expiresAt bounds how long a disconnected session's state is
	// worth keeping.
	Save(ctx context.Context, sessionID string, data []byte, expiresAt time.Time) error

	// Load retrieves a snapshot by session ID.
	// Returns (nil, nil) when no unexpired snapshot exists.
	Load(ctx context.Context, sessionID string) ([]byte, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Close releases backend resources.
	Close() error
}

// ErrStoreClosed is returned by operations on a closed store.
type ErrStoreClosed struct{}

func (ErrStoreClosed) Error() string {
	return "snapshot: store is closed"
}
