package mfa

import (
	"crypto/rand"
	"encoding/hex"
)

// RecoveryCodeGenerator defines an interface for generating MFA recovery codes.
type RecoveryCodeGenerator interface {
	// Generate returns a slice of unique recovery codes or an error if the
	// random source fails.
	Generate() ([]string, error)
}

const (
	// RecoveryCodeCount is the number of codes issued per enrollment batch.
	RecoveryCodeCount = 10

	// RecoveryCodeLength is the length of a single code in hex characters.
	RecoveryCodeLength = 8
)

// RecoveryCode generates cryptographically secure MFA recovery codes.
//
// Each code is 8 lowercase hexadecimal characters (32 bits of entropy) drawn
// from crypto/rand. A full batch contains exactly 10 unique codes.
type RecoveryCode struct{}

// NewRecoveryCode returns a new RecoveryCode generator.
func NewRecoveryCode() *RecoveryCode {
	return &RecoveryCode{}
}

// Generate produces a batch of unique recovery codes.
func (rc *RecoveryCode) Generate() ([]string, error) {
	out := make([]string, 0, RecoveryCodeCount)
	seen := make(map[string]struct{}, RecoveryCodeCount)

	for len(out) < RecoveryCodeCount {
		code, err := rc.generateCode()
		if err != nil {
			return nil, err
		}

		// extremely unlikely, but prevents accidental duplicates
		if _, ok := seen[code]; ok {
			continue
		}

		seen[code] = struct{}{}
		out = append(out, code)
	}

	return out, nil
}

func (rc *RecoveryCode) generateCode() (string, error) {
	raw := make([]byte, RecoveryCodeLength/2)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	return hex.EncodeToString(raw), nil
}
