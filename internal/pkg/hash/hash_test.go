package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	_ Hash = (*Bcrypt)(nil)
	_ Hash = (*Argon2id)(nil)
	_ Hash = (*HMACSHA256)(nil)
)

func TestBcryptHashVerify(t *testing.T) {
	h := NewBcrypt(4, "pepper")

	hashed, err := h.Hash("s3cret-value")
	require.NoError(t, err)

	require.True(t, h.Verify(string(hashed), "s3cret-value"))
	require.False(t, h.Verify(string(hashed), "wrong-value"))
}

func TestArgon2idHashVerify(t *testing.T) {
	h := NewArgon2id("pepper")

	hashed, err := h.Hash("deadbeef")
	require.NoError(t, err)

	require.True(t, h.Verify(string(hashed), "deadbeef"))
	require.False(t, h.Verify(string(hashed), "deadbeee"))
}

func TestHMACSHA256IsDeterministic(t *testing.T) {
	h := NewHMACSHA256("hmac-secret")

	first, err := h.Hash("opaque-token")
	require.NoError(t, err)
	second, err := h.Hash("opaque-token")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.True(t, h.Verify(string(first), "opaque-token"))
	require.False(t, h.Verify(string(first), "other-token"))
}
