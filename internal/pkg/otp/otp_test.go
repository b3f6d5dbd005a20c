package otp

import (
	"testing"
	"time"

	libOTP "github.com/pquerna/otp"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesSecretAndURI(t *testing.T) {
	o := NewTOTP("authcore", 30, 1, libOTP.DigitsSix)

	secret, uri, err := o.Generate("jo@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, secret)
	require.Contains(t, uri, "otpauth://totp/")
	require.Contains(t, uri, "issuer=authcore")
}

func TestValidateAcceptsAdjacentSteps(t *testing.T) {
	o := NewTOTP("authcore", 30, 1, libOTP.DigitsSix)

	secret, _, err := o.Generate("jo@example.com")
	require.NoError(t, err)

	now := time.Unix(1_700_000_010, 0)
	code, err := o.GenerateCode(secret, now)
	require.NoError(t, err)

	require.True(t, o.Validate(code, secret, now))
	require.True(t, o.Validate(code, secret, now.Add(-30*time.Second)))
	require.True(t, o.Validate(code, secret, now.Add(30*time.Second)))
}

func TestValidateRejectsBeyondDriftWindow(t *testing.T) {
	o := NewTOTP("authcore", 30, 1, libOTP.DigitsSix)

	secret, _, err := o.Generate("jo@example.com")
	require.NoError(t, err)

	now := time.Unix(1_700_000_010, 0)
	code, err := o.GenerateCode(secret, now)
	require.NoError(t, err)

	require.False(t, o.Validate(code, secret, now.Add(90*time.Second)))
	require.False(t, o.Validate(code, secret, now.Add(-90*time.Second)))
}

func TestValidateRejectsWrongCode(t *testing.T) {
	o := NewTOTP("authcore", 30, 1, libOTP.DigitsSix)

	secret, _, err := o.Generate("jo@example.com")
	require.NoError(t, err)

	require.False(t, o.Validate("000000", secret, time.Unix(1_700_000_010, 0)))
}
