package scrape

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the sha256 hex digest of the UTF-8 bytes of text.
// Deterministic across runs and instances; this is the identity key the
// dedup cache is built on, applied independently to the canonical request
// URL and to the normalized body text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
