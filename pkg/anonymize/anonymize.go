// Package anonymize provides stable one-way hashing of source user identifiers.
package anonymize

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher produces anonymized user identifiers. The same source identifier
// always yields the same hash for a given salt, and the hash carries no
// recoverable trace of the original identifier.
type Hasher struct {
	salt string
}

// NewHasher creates a Hasher with the given salt. An empty salt is valid
// but weakens resistance to dictionary lookups of known identifiers.
func NewHasher(salt string) *Hasher {
	return &Hasher{salt: salt}
}

// UserID returns the hex-encoded SHA-256 of the source identifier and salt.
func (h *Hasher) UserID(sourceID string) string {
	sum := sha256.Sum256([]byte(sourceID + h.salt))
	return hex.EncodeToString(sum[:])
}
