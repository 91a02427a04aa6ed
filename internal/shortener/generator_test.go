package shortener_test

import (
	"strings"
	"testing"

	"github.com/serroba/shorturl-api/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNanoIDGenerator(t *testing.T) {
	t.Run("produces codes of the requested length from the alphabet", func(t *testing.T) {
		generate, err := shortener.NewNanoIDGenerator(10)
		require.NoError(t, err)

		code, err := generate()

		require.NoError(t, err)
		assert.Len(t, string(code), 10)

		for _, r := range string(code) {
			assert.True(t, strings.ContainsRune(shortener.Alphabet, r), "unexpected rune %q", r)
		}
	})

	t.Run("falls back to default length", func(t *testing.T) {
		generate, err := shortener.NewNanoIDGenerator(0)
		require.NoError(t, err)

		code, err := generate()

		require.NoError(t, err)
		assert.Len(t, string(code), shortener.DefaultCodeLength)
	})

	t.Run("has no collisions across many codes", func(t *testing.T) {
		generate, err := shortener.NewNanoIDGenerator(shortener.DefaultCodeLength)
		require.NoError(t, err)

		const n = 20000

		seen := make(map[shortener.Code]struct{}, n)

		for range n {
			code, err := generate()
			require.NoError(t, err)

			_, dup := seen[code]
			require.False(t, dup, "collision on %q", code)

			seen[code] = struct{}{}
		}

		assert.Len(t, seen, n)
	})
}
