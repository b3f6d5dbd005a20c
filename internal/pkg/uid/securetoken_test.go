package uid

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

var _ StringID = (*SecureToken)(nil)

func TestSecureTokenShape(t *testing.T) {
	g := NewSecureToken()

	token := g.Generate()
	require.Len(t, token, 64)

	raw, err := hex.DecodeString(token)
	require.NoError(t, err)
	require.Len(t, raw, 32)
}

func TestSecureTokenHasNoPredictablePrefix(t *testing.T) {
	g := NewSecureToken()

	// Consecutive tokens must not share a structured prefix (timestamp, node
	// identity, sequential counter). With fully random bytes, matching even
	// the first 16 hex chars is a one-in-2^64 event.
	prev := g.Generate()
	for range 16 {
		next := g.Generate()
		require.NotEqual(t, prev[:16], next[:16])
		prev = next
	}
}

func TestSecureTokenUniqueness(t *testing.T) {
	g := NewSecureToken()

	seen := make(map[string]struct{}, 256)
	for range 256 {
		token := g.Generate()
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}
