// Package hash computes content fingerprints for duplicate detection.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the SHA-256 hex digest of data. Deterministic for
// identical byte sequences, total over all inputs including the empty one.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
