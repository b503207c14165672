package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// tokenFingerprintLen is long enough to correlate log lines, too short to be a lookup key.
const tokenFingerprintLen = 12

// HashToken returns a stable hex digest of a client token, safe for storage keys.
func HashToken(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// TokenFingerprint returns a short digest prefix for logs. Empty tokens stay empty.
func TokenFingerprint(s string) string {
	if s == "" {
		return ""
	}
	return HashToken(s)[:tokenFingerprintLen]
}
