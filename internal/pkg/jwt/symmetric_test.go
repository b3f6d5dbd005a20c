package jwt

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixedID struct{ id string }

func (g fixedID) Generate() string { return g.id }

func testConfig(now time.Time) Config {
	return Config{
		Secret:      bytes.Repeat([]byte("s"), 64),
		Issuer:      "authcore",
		Audiences:   []string{"authcore-api"},
		TTL:         time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
		Clock:       fixedClock{now: now},
		UUID:        fixedID{id: "jti-1"},
	}
}

func TestNewHS512RejectsShortKey(t *testing.T) {
	cfg := testConfig(time.Now())
	cfg.Secret = []byte("short")

	_, err := NewHS512(cfg)
	require.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestGenerateAndVerify(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	s, err := NewHS512(testConfig(now))
	require.NoError(t, err)

	token, err := s.Generate(TokenInput{
		AccountID:         42,
		Email:             "jo@example.com",
		TwoFactorVerified: true,
		EmailVerified:     true,
	})
	require.NoError(t, err)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.AccountID)
	require.Equal(t, "jo@example.com", claims.Email)
	require.True(t, claims.TwoFactorVerified)
	require.True(t, claims.EmailVerified)
	require.Equal(t, "jti-1", claims.ID)
	require.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestGenerateRememberUsesExtendedTTL(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	s, err := NewHS512(testConfig(now))
	require.NoError(t, err)

	token, err := s.Generate(TokenInput{AccountID: 42, Email: "jo@example.com", Remember: true})
	require.NoError(t, err)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	require.Equal(t, now.Add(30*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	s, err := NewHS512(testConfig(past))
	require.NoError(t, err)

	token, err := s.Generate(TokenInput{AccountID: 42, Email: "jo@example.com"})
	require.NoError(t, err)

	_, err = s.Verify(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	now := time.Now()
	s, err := NewHS512(testConfig(now))
	require.NoError(t, err)

	token, err := s.Generate(TokenInput{AccountID: 42, Email: "jo@example.com"})
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = s.Verify(tampered)
	require.Error(t, err)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	now := time.Now()
	s1, err := NewHS512(testConfig(now))
	require.NoError(t, err)

	cfg2 := testConfig(now)
	cfg2.Secret = bytes.Repeat([]byte("x"), 64)
	s2, err := NewHS512(cfg2)
	require.NoError(t, err)

	token, err := s1.Generate(TokenInput{AccountID: 42, Email: "jo@example.com"})
	require.NoError(t, err)

	_, err = s2.Verify(token)
	require.Error(t, err)
}
