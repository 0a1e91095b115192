package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenDigest(t *testing.T) {
	// sha256("foo")
	assert.Equal(t, "2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae", TokenDigest("foo"))
	assert.Len(t, TokenDigest(""), 64)
	assert.NotEqual(t, TokenDigest("a"), TokenDigest("b"))
}
