package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ArtifactKey builds the cache key for a rendered artifact: the output
// format plus the hash of the DOT source. Identical graphs share an
// entry regardless of which workspace produced them.
func ArtifactKey(format string, dot []byte) string {
	return format + ":" + Hash(dot)
}
