package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// KeyPrefix starts every bot key so leaked keys are easy to grep for.
const KeyPrefix = "ltk_"

// displayPrefixLen is how much of a key is kept for display.
const displayPrefixLen = len(KeyPrefix) + 8

// GenerateKey returns a new random bot key and its display prefix.
func GenerateKey() (raw, prefix string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = KeyPrefix + base64.RawURLEncoding.EncodeToString(b)
	return raw, raw[:displayPrefixLen], nil
}

// HashKey returns the hex SHA-256 of raw, the form stored and looked up.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
