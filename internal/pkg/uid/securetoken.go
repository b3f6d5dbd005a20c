package uid

import (
	"crypto/rand"
	"encoding/hex"
)

// SecureToken generates opaque bearer tokens: 32 bytes from crypto/rand,
// hex encoded (64 chars, 256 random bits). No byte of the output is derived
// from time, host, or a counter.
//
// Use it for secrets handed to clients (challenge, reset and trusted-device
// tokens). Row identifiers should use Snowflake or UUID instead.
type SecureToken struct{}

// NewSecureToken returns a crypto/rand-backed token generator.
func NewSecureToken() *SecureToken {
	return &SecureToken{}
}

// Generate returns a fresh random token.
func (*SecureToken) Generate() string {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		// A broken entropy source must not degrade to guessable tokens.
		panic("uid: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}
