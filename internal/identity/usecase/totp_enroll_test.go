package usecase

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
	"github.com/gobackend-labs/authcore/internal/pkg/mfa"
)

func TestEnrollTOTPRequiresPassword(t *testing.T) {
	d := newTestUsecase(t)
	credentialFixture(t, d, 7)

	_, err := d.uc.EnrollTOTP(d.authedCtx(7, "user@example.com"), EnrollTOTPInput{
		CurrentPassword: "wrong-password",
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Equal(t, "invalid password", ge.Msg())
}

func TestEnrollTOTPConflictsWhenAlreadyEnabled(t *testing.T) {
	d := newTestUsecase(t)
	credentialFixture(t, d, 7)
	d.repo.getTwoFactor = func(int64) (*entity.TwoFactor, error) {
		return &entity.TwoFactor{AccountID: 7}, nil
	}

	_, err := d.uc.EnrollTOTP(d.authedCtx(7, "user@example.com"), EnrollTOTPInput{
		CurrentPassword: testPassword,
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeConflict, ge.Code())
	require.Equal(t, "two-factor authentication already enabled", ge.Msg())
}

func TestEnrollTOTPStagesEncryptedSeed(t *testing.T) {
	d := newTestUsecase(t)
	credentialFixture(t, d, 7)

	out, err := d.uc.EnrollTOTP(d.authedCtx(7, "user@example.com"), EnrollTOTPInput{
		CurrentPassword: testPassword,
	})

	require.NoError(t, err)
	require.NotEmpty(t, out.ChallengeToken)
	require.NotEmpty(t, out.Key)
	require.Contains(t, out.URI, "otpauth://totp/")
	require.NotEmpty(t, out.QRCode)

	require.Len(t, d.repo.createdChallenges, 1)
	chal := d.repo.createdChallenges[0]
	require.Equal(t, entity.ChallengePurposeTOTPEnroll, chal.Purpose)
	require.Equal(t, mustHash(t, d.hmac, out.ChallengeToken), chal.Token)
	require.Equal(t, d.clock.now.Add(10*time.Minute), chal.ExpiresAt)

	// The parked seed is ciphertext, recoverable only with the account scope.
	encoded := chal.Metadata.GetString("secret")
	require.NotEmpty(t, encoded)
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	require.NotEqual(t, out.Key, string(ciphertext))

	plain, err := d.enc.Decrypt(ciphertext, mfa.Scope{UserID: 7, Purpose: mfa.PurposeOTPSeed})
	require.NoError(t, err)
	require.Equal(t, out.Key, string(plain))

	// Nothing touches the account until the first code verifies.
	require.Empty(t, d.repo.enabledTwoFactors)
}

func TestVerifyTOTPEnrollmentSuccess(t *testing.T) {
	d := newTestUsecase(t)
	secret, ciphertext := d.encryptedSeed(t, 7)

	d.challengeFor(t, entity.ChallengeAccount{
		ChallengeID:      300,
		ChallengePurpose: entity.ChallengePurposeTOTPEnroll,
		ChallengeMetadata: map[string]any{
			"secret":      base64.StdEncoding.EncodeToString(ciphertext),
			"key_version": 1,
		},
		AccountID:     7,
		AccountEmail:  "user@example.com",
		AccountStatus: entity.AccountStatusActive,
	}, "enroll-token")

	out, err := d.uc.VerifyTOTPEnrollment(d.authedCtx(7, "user@example.com"), VerifyTOTPEnrollmentInput{
		ChallengeToken: "enroll-token",
		Code:           d.totpCode(t, secret, d.clock.now),
	})

	require.NoError(t, err)
	require.Len(t, out.RecoveryCodes, 10)
	for _, code := range out.RecoveryCodes {
		require.Regexp(t, "^[0-9a-f]{8}$", code)
	}

	// A fresh session is issued, now marked second-factor verified.
	clm := d.verifyClaims(t, out.SessionToken)
	require.Equal(t, int64(7), clm.AccountID)
	require.True(t, clm.TwoFactorVerified)
	require.Empty(t, out.DeviceToken)

	require.Len(t, d.repo.enabledTwoFactors, 1)
	tf := d.repo.enabledTwoFactors[0]
	require.Equal(t, int64(7), tf.AccountID)
	require.Equal(t, ciphertext, tf.Secret)
	require.Equal(t, int16(1), tf.KeyVersion)

	// Stored codes are keyed hashes matching the plaintext batch.
	require.Len(t, d.repo.enabledRecoveryCodes, 1)
	stored := d.repo.enabledRecoveryCodes[0]
	require.Len(t, stored, 10)
	for i, rc := range stored {
		require.Equal(t, int64(7), rc.AccountID)
		require.NotEqual(t, out.RecoveryCodes[i], rc.Code)
		require.True(t, d.argon2id.Verify(rc.Code, out.RecoveryCodes[i]))
	}

	d.waitAlerts(t)
	require.Equal(t, []string{AlertKindTwoFactorEnabled}, d.msg.alertKinds())
}

func TestVerifyTOTPEnrollmentTrustDeviceIssuesToken(t *testing.T) {
	d := newTestUsecase(t)
	secret, ciphertext := d.encryptedSeed(t, 7)

	d.challengeFor(t, entity.ChallengeAccount{
		ChallengeID:      300,
		ChallengePurpose: entity.ChallengePurposeTOTPEnroll,
		ChallengeMetadata: map[string]any{
			"secret": base64.StdEncoding.EncodeToString(ciphertext),
		},
		AccountID:     7,
		AccountEmail:  "user@example.com",
		AccountStatus: entity.AccountStatusActive,
	}, "enroll-token")

	out, err := d.uc.VerifyTOTPEnrollment(d.authedCtx(7, "user@example.com"), VerifyTOTPEnrollmentInput{
		ChallengeToken: "enroll-token",
		Code:           d.totpCode(t, secret, d.clock.now),
		TrustDevice:    true,
	})

	require.NoError(t, err)
	require.NotEmpty(t, out.DeviceToken)

	require.Len(t, d.repo.createdDevices, 1)
	dev := d.repo.createdDevices[0]
	require.Equal(t, int64(7), dev.AccountID)
	require.Equal(t, mustHash(t, d.hmac, out.DeviceToken), dev.TokenHash)
	require.Equal(t, d.clock.now.Add(30*24*time.Hour), dev.ExpiresAt)
}

func TestVerifyTOTPEnrollmentRejectsForeignChallenge(t *testing.T) {
	d := newTestUsecase(t)
	_, ciphertext := d.encryptedSeed(t, 8)

	d.challengeFor(t, entity.ChallengeAccount{
		ChallengeID:      300,
		ChallengePurpose: entity.ChallengePurposeTOTPEnroll,
		ChallengeMetadata: map[string]any{
			"secret": base64.StdEncoding.EncodeToString(ciphertext),
		},
		AccountID:     8,
		AccountEmail:  "other@example.com",
		AccountStatus: entity.AccountStatusActive,
	}, "enroll-token")

	_, err := d.uc.VerifyTOTPEnrollment(d.authedCtx(7, "user@example.com"), VerifyTOTPEnrollmentInput{
		ChallengeToken: "enroll-token",
		Code:           "123456",
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Equal(t, "invalid challenge session", ge.Msg())
	require.Empty(t, d.repo.enabledTwoFactors)
}

func TestVerifyTOTPEnrollmentWrongCode(t *testing.T) {
	d := newTestUsecase(t)
	secret, ciphertext := d.encryptedSeed(t, 7)

	d.challengeFor(t, entity.ChallengeAccount{
		ChallengeID:      300,
		ChallengePurpose: entity.ChallengePurposeTOTPEnroll,
		ChallengeMetadata: map[string]any{
			"secret": base64.StdEncoding.EncodeToString(ciphertext),
		},
		AccountID:     7,
		AccountEmail:  "user@example.com",
		AccountStatus: entity.AccountStatusActive,
	}, "enroll-token")

	wrong := d.totpCode(t, secret, d.clock.now.Add(-5*time.Minute))
	_, err := d.uc.VerifyTOTPEnrollment(d.authedCtx(7, "user@example.com"), VerifyTOTPEnrollmentInput{
		ChallengeToken: "enroll-token",
		Code:           wrong,
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Empty(t, d.repo.enabledTwoFactors)
}

func TestDisableTOTPSuccess(t *testing.T) {
	d := newTestUsecase(t)
	secret, ciphertext := d.encryptedSeed(t, 7)
	d.repo.getTwoFactor = func(int64) (*entity.TwoFactor, error) {
		return &entity.TwoFactor{AccountID: 7, Secret: ciphertext, KeyVersion: 1}, nil
	}

	err := d.uc.DisableTOTP(d.authedCtx(7, "user@example.com"), DisableTOTPInput{
		Code: d.totpCode(t, secret, d.clock.now),
	})

	require.NoError(t, err)
	require.Equal(t, []int64{7}, d.repo.disabledTwoFactors)
	// Trusted devices stay: they gate the second factor, not the password.
	require.Empty(t, d.repo.deletedDeviceSweeps)

	d.waitAlerts(t)
	require.Equal(t, []string{AlertKindTwoFactorDisabled}, d.msg.alertKinds())
}

func TestDisableTOTPWrongCode(t *testing.T) {
	d := newTestUsecase(t)
	secret, ciphertext := d.encryptedSeed(t, 7)
	d.repo.getTwoFactor = func(int64) (*entity.TwoFactor, error) {
		return &entity.TwoFactor{AccountID: 7, Secret: ciphertext, KeyVersion: 1}, nil
	}

	err := d.uc.DisableTOTP(d.authedCtx(7, "user@example.com"), DisableTOTPInput{
		Code: d.totpCode(t, secret, d.clock.now.Add(-5*time.Minute)),
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Empty(t, d.repo.disabledTwoFactors)
}

func TestDisableTOTPWithoutEnrollment(t *testing.T) {
	d := newTestUsecase(t)

	err := d.uc.DisableTOTP(d.authedCtx(7, "user@example.com"), DisableTOTPInput{Code: "123456"})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Equal(t, "invalid challenge session or code", ge.Msg())
}
