package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLength(t *testing.T) {
	pw, err := Generate()
	require.NoError(t, err)
	assert.Len(t, pw, Length)
}

func TestGenerateContainsAllCharacterClasses(t *testing.T) {
	for i := 0; i < 100; i++ {
		pw, err := Generate()
		require.NoError(t, err)

		assert.True(t, strings.ContainsAny(pw, uppercase), "missing uppercase in %q", pw)
		assert.True(t, strings.ContainsAny(pw, lowercase), "missing lowercase in %q", pw)
		assert.True(t, strings.ContainsAny(pw, digits), "missing digit in %q", pw)
		assert.True(t, strings.ContainsAny(pw, symbols), "missing symbol in %q", pw)
	}
}

func TestGenerateOnlyUsesAllowedAlphabet(t *testing.T) {
	allowed := uppercase + lowercase + digits + symbols

	pw, err := Generate()
	require.NoError(t, err)

	for _, c := range pw {
		assert.Contains(t, allowed, string(c))
	}
}

func TestGenerateIsUnique(t *testing.T) {
	seen := make(map[string]bool, 1000)

	for i := 0; i < 1000; i++ {
		pw, err := Generate()
		require.NoError(t, err)
		require.False(t, seen[pw], "duplicate password generated: %q", pw)
		seen[pw] = true
	}
}
