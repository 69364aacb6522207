package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	t.Parallel()

	h := New(4)

	hashed, err := h.Hash("pw123")
	require.NoError(t, err)
	require.NotEmpty(t, hashed)
	assert.NotEqual(t, "pw123", hashed)

	assert.True(t, h.Check(hashed, "pw123"))
	assert.False(t, h.Check(hashed, "pw124"))
	assert.False(t, h.Check(hashed, ""))
}

func TestHashIsSalted(t *testing.T) {
	t.Parallel()

	h := New(4)

	first, err := h.Hash("pw123")
	require.NoError(t, err)
	second, err := h.Hash("pw123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Check(first, "pw123"))
	assert.True(t, h.Check(second, "pw123"))
}

func TestCheckMalformedHash(t *testing.T) {
	t.Parallel()

	h := New(4)

	assert.False(t, h.Check("", "pw123"))
	assert.False(t, h.Check("not-a-bcrypt-hash", "pw123"))
}

func TestNewClampsCost(t *testing.T) {
	t.Parallel()

	h := New(-1)
	hashed, err := h.Hash("pw123")
	require.NoError(t, err)
	assert.True(t, h.Check(hashed, "pw123"))
}
