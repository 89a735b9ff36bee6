package tokens_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	tokens "github.com/nu-its/authgate/internal/security/token"
)

func TestGenerateOpaqueToken_UniqueAndURLSafe(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		raw, err := tokens.GenerateOpaqueToken(32)
		require.NoError(t, err)
		require.NotEmpty(t, raw)
		require.False(t, seen[raw], "duplicate token %q", raw)
		seen[raw] = true

		// base64url sin padding
		require.False(t, strings.ContainsAny(raw, "+/="), "token %q is not url-safe", raw)
	}
}

func TestHMACSHA256_DeterministicPerKey(t *testing.T) {
	key := []byte("k1")
	h1 := tokens.HMACSHA256Base64URL(key, "value")
	h2 := tokens.HMACSHA256Base64URL(key, "value")
	require.Equal(t, h1, h2)

	// Otra key u otro input dan otro hash
	require.NotEqual(t, h1, tokens.HMACSHA256Base64URL([]byte("k2"), "value"))
	require.NotEqual(t, h1, tokens.HMACSHA256Base64URL(key, "other"))
	require.NotEqual(t, "value", h1)
}

func TestPrefix(t *testing.T) {
	require.Equal(t, "abcdefgh", tokens.Prefix("abcdefghijkl"))
	require.Equal(t, "short", tokens.Prefix("short"))
	require.Equal(t, "", tokens.Prefix(""))
}
