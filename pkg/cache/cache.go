// Package cache provides pluggable byte caching for remote store responses.
//
// uisync never caches tree data — definitions are rebuilt fresh on every
// pull and push. What it does cache are raw remote responses (record queries
// and document bodies in wire form), so repeated runs against the same
// environment don't re-fetch unchanged blobs. Three backends are provided:
//   - file: default for CLI usage, entries under ~/.cache/uisync/
//   - redis: shared cache for CI or multi-user setups
//   - null: disables caching entirely
//
// All backends store opaque []byte values under string keys with a TTL.
// Use --refresh on the CLI (or Options.Refresh in pkg/sync) to bypass reads.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Cache is the interface all cache backends implement.
type Cache interface {
	// Get retrieves a value. The second return value reports a hit;
	// a miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a time-to-live. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DefaultDir returns the default on-disk cache directory (~/.cache/uisync).
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "uisync"), nil
}
