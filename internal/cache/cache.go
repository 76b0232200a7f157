package cache

import "time"

// Store defines the interface for the content-addressed artifact cache.
type Store interface {
	// Get retrieves the artifact cached for input.
	// Returns the artifact and true on a hit; false covers both
	// "never stored" and "expired".
	Get(input string) ([]byte, bool)

	// Put stores the artifact under the fingerprint of input,
	// overwriting any existing entry for the same fingerprint.
	Put(input string, artifact []byte)

	// Clear removes all entries.
	Clear()

	// Stats returns cache statistics without mutating state.
	Stats() Stats
}

// Stats represents cache statistics.
type Stats struct {
	Entries   int           // Current number of entries
	Capacity  int           // Configured maximum number of entries
	SizeBytes int64         // Aggregate size of stored artifacts
	TTL       time.Duration // Configured entry time-to-live
	Hits      uint64        // Total cache hits
	Misses    uint64        // Total cache misses
	Evictions uint64        // Total capacity evictions
}
