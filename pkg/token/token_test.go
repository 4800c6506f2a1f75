package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		tok, err := New()
		require.NoError(t, err)
		assert.Len(t, tok, Length)
		assert.True(t, Valid(tok))
		_, dup := seen[tok]
		require.False(t, dup, "duplicate token %s", tok)
		seen[tok] = struct{}{}
	}
}

func TestNewN(t *testing.T) {
	tok, err := NewN(8)
	require.NoError(t, err)
	assert.Len(t, tok, 8)

	_, err = NewN(0)
	assert.Error(t, err)
}

func TestValid(t *testing.T) {
	assert.False(t, Valid(""))
	assert.False(t, Valid("short"))
	assert.False(t, Valid("0123456789abcdef0123456789abcde-"))
	assert.True(t, Valid("0123456789abcdefABCDEF0123456789"))
}
