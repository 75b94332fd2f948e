package snapshot

import (
	"encoding/json"
	"fmt"
	"time"
)

// FormatVersion is the current snapshot format version.
// Increment on breaking changes; Decode rejects newer versions.
const FormatVersion = 1

// Snapshot is the serializable state of one session: the raw payloads of its
// named input cells.
type Snapshot struct {
	// SessionID is the owning session.
	SessionID string `json:"session_id"`

	// TakenAt is when the snapshot was captured.
	TakenAt time.Time `json:"taken_at"`

	// Cells maps input cell names to their raw JSON payloads.
	Cells map[string]json.RawMessage `json:"cells,omitempty"`

	// Version is the serialization format version.
	Version int `json:"version"`
}

// Encode converts a snapshot to bytes, stamping the current format version.
func Encode(s *Snapshot) ([]byte, error) {
	s.Version = FormatVersion
	return json.Marshal(s)
}

// Decode converts bytes back to a snapshot.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if s.Version > FormatVersion {
		return nil, fmt.Errorf("snapshot: format version %d is newer than supported %d", s.Version, FormatVersion)
	}
	return &s, nil
}
