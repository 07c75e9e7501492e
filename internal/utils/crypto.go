// internal/utils/crypto.go
package utils

import (
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// HashString returns the hex BLAKE2b-256 digest of input.
func HashString(input string) string {
	sum := blake2b.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// VerifyHash reports whether input hashes to expected, in constant time.
func VerifyHash(input, expected string) bool {
	actual := HashString(input)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1
}
