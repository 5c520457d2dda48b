package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACSHA256(t *testing.T) {
	h := NewHMACSHA256("unit-test-secret")

	digest, err := h.Hash("AB12CD")
	require.NoError(t, err)
	assert.Len(t, digest, 64)

	assert.True(t, h.Verify(string(digest), "AB12CD"))
	assert.False(t, h.Verify(string(digest), "AB12CE"))
	assert.False(t, h.Verify("", "AB12CD"))

	other := NewHMACSHA256("another-secret")
	assert.False(t, other.Verify(string(digest), "AB12CD"))
}

func TestHMACSHA256_RejectsMalformedDigest(t *testing.T) {
	h := NewHMACSHA256("unit-test-secret")

	assert.False(t, h.Verify("zz", "AB12CD"))
	assert.False(t, h.Verify("abcd", "AB12CD"))
}
