package database

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// scopeLength is the number of hex characters kept from the digest.
const scopeLength = 16

// Fingerprint derives the storage scope for a Notion token.
// It is the first 16 hex characters of the token's SHA3-256 digest.
func Fingerprint(token string) string {
	sum := sha3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:scopeLength]
}
