// internal/utils/crypto_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashString(t *testing.T) {
	digest := HashString("Beat License Agreement")

	assert.Len(t, digest, 64)
	assert.Equal(t, digest, HashString("Beat License Agreement"))
	assert.NotEqual(t, digest, HashString("Beat License Agreement."))

	assert.True(t, VerifyHash("Beat License Agreement", digest))
	assert.False(t, VerifyHash("Beat License Agreement ", digest))
	assert.False(t, VerifyHash("Beat License Agreement", ""))
}
