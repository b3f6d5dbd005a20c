package hash

// Hash hashes plaintext secrets and verifies input against stored hashes.
type Hash interface {
	// Hash returns the hashed form of plaintext.
	Hash(plaintext string) ([]byte, error)
	// Verify reports whether plaintext matches the hashed value.
	Verify(hashed, plaintext string) bool
}
