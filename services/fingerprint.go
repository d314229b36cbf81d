package services

import (
	"crypto/sha256"
	"encoding/hex"
)

// NoSourceFingerprint stands in for the fingerprint of a document that does not exist
const NoSourceFingerprint = "none"

// Fingerprint returns the first 16 hex characters of the SHA-256 of text, or
// NoSourceFingerprint when text is empty.
func Fingerprint(text string) string {
	if text == "" {
		return NoSourceFingerprint
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}
