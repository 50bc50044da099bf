package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Cost below minimum rejected", func(t *testing.T) {
		_, err := New(11)
		assert.Error(t, err)
	})

	t.Run("Cost above maximum rejected", func(t *testing.T) {
		_, err := New(32)
		assert.Error(t, err)
	})

	t.Run("Minimum cost accepted", func(t *testing.T) {
		_, err := New(MinCost)
		require.NoError(t, err)
	})
}

func TestHashAndVerify(t *testing.T) {
	h, err := New(MinCost)
	require.NoError(t, err)

	t.Run("Round trip", func(t *testing.T) {
		hashed, err := h.Hash("correct horse battery staple")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hashed, "$2a$"))
		assert.True(t, h.Verify(hashed, "correct horse battery staple"))
	})

	t.Run("Wrong password", func(t *testing.T) {
		hashed, err := h.Hash("correct horse battery staple")
		require.NoError(t, err)
		assert.False(t, h.Verify(hashed, "incorrect horse"))
	})

	t.Run("Salted per credential", func(t *testing.T) {
		h1, err := h.Hash("same input")
		require.NoError(t, err)
		h2, err := h.Hash("same input")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("Garbage hash never verifies", func(t *testing.T) {
		assert.False(t, h.Verify("not-a-bcrypt-hash", "anything"))
	})
}
