package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string. Cache keys are hashed before
// hitting the filesystem so arbitrary key strings (URLs, document ids)
// never produce unsafe file names.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
