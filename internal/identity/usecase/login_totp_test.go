package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

// enrolledAccount wires a challenge plus an enabled TOTP factor and returns
// the plaintext seed for code generation.
func enrolledAccount(t *testing.T, d *testDeps, accountID int64, token string) string {
	t.Helper()

	secret, ciphertext := d.encryptedSeed(t, accountID)

	d.challengeFor(t, entity.ChallengeAccount{
		ChallengeID:      100,
		ChallengePurpose: entity.ChallengePurposeMFALogin,
		AccountID:        accountID,
		AccountEmail:     "user@example.com",
		AccountStatus:    entity.AccountStatusActive,
	}, token)

	d.repo.getTwoFactor = func(id int64) (*entity.TwoFactor, error) {
		if id != accountID {
			return nil, goerror.ErrNotFound
		}
		return &entity.TwoFactor{AccountID: id, Secret: ciphertext, KeyVersion: 1}, nil
	}

	return secret
}

func TestVerifyTOTPChallengeSuccess(t *testing.T) {
	d := newTestUsecase(t)
	secret := enrolledAccount(t, d, 7, "challenge-token")

	out, err := d.uc.VerifyTOTPChallenge(context.Background(), VerifyTOTPChallengeInput{
		ChallengeToken: "challenge-token",
		Code:           d.totpCode(t, secret, d.clock.now),
	})

	require.NoError(t, err)
	require.Empty(t, out.DeviceToken)

	clm := d.verifyClaims(t, out.SessionToken)
	require.Equal(t, int64(7), clm.AccountID)
	require.True(t, clm.TwoFactorVerified)

	// Challenge is single use.
	require.Equal(t, []int64{100}, d.repo.deletedChallenges)
	require.Contains(t, d.limiter.resetKeys, "2fa:7")
}

func TestVerifyTOTPChallengeAcceptsAdjacentStep(t *testing.T) {
	d := newTestUsecase(t)
	secret := enrolledAccount(t, d, 7, "challenge-token")

	out, err := d.uc.VerifyTOTPChallenge(context.Background(), VerifyTOTPChallengeInput{
		ChallengeToken: "challenge-token",
		Code:           d.totpCode(t, secret, d.clock.now.Add(-30*time.Second)),
	})

	require.NoError(t, err)
	require.NotEmpty(t, out.SessionToken)
}

func TestVerifyTOTPChallengeRejectsStaleCode(t *testing.T) {
	d := newTestUsecase(t)
	secret := enrolledAccount(t, d, 7, "challenge-token")

	_, err := d.uc.VerifyTOTPChallenge(context.Background(), VerifyTOTPChallengeInput{
		ChallengeToken: "challenge-token",
		Code:           d.totpCode(t, secret, d.clock.now.Add(-2*time.Minute)),
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Equal(t, "invalid challenge session or code", ge.Msg())
	require.Empty(t, d.repo.deletedChallenges)
}

func TestVerifyTOTPChallengeRejectsMalformedCodeEarly(t *testing.T) {
	d := newTestUsecase(t)
	d.repo.getChallengeAccount = func(string, entity.ChallengePurpose) (*entity.ChallengeAccount, error) {
		t.Fatal("malformed code must be rejected before the store is queried")
		return nil, nil
	}

	_, err := d.uc.VerifyTOTPChallenge(context.Background(), VerifyTOTPChallengeInput{
		ChallengeToken: "challenge-token",
		Code:           "12345a",
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Equal(t, "invalid challenge session or code", ge.Msg())
}

func TestVerifyTOTPChallengeUnknownChallenge(t *testing.T) {
	d := newTestUsecase(t)

	_, err := d.uc.VerifyTOTPChallenge(context.Background(), VerifyTOTPChallengeInput{
		ChallengeToken: "no-such-challenge",
		Code:           "123456",
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Equal(t, "invalid challenge session or code", ge.Msg())
}

func TestVerifyTOTPChallengeRateLimited(t *testing.T) {
	d := newTestUsecase(t)
	secret := enrolledAccount(t, d, 7, "challenge-token")
	d.limiter.deny = true
	d.limiter.retryAfter = 30 * time.Second

	_, err := d.uc.VerifyTOTPChallenge(context.Background(), VerifyTOTPChallengeInput{
		ChallengeToken: "challenge-token",
		Code:           d.totpCode(t, secret, d.clock.now),
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeTooManyRequest, ge.Code())
	require.Equal(t, "30", ge.Fields()["retry_after_seconds"])
}

func TestVerifyTOTPChallengeTrustDeviceIssuesToken(t *testing.T) {
	d := newTestUsecase(t)
	secret := enrolledAccount(t, d, 7, "challenge-token")

	out, err := d.uc.VerifyTOTPChallenge(context.Background(), VerifyTOTPChallengeInput{
		ChallengeToken: "challenge-token",
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

func TestVerifyTOTPChallengeRememberExtendsSession(t *testing.T) {
	d := newTestUsecase(t)
	secret := enrolledAccount(t, d, 7, "challenge-token")

	out, err := d.uc.VerifyTOTPChallenge(context.Background(), VerifyTOTPChallengeInput{
		ChallengeToken: "challenge-token",
		Code:           d.totpCode(t, secret, d.clock.now),
		Remember:       true,
	})

	require.NoError(t, err)
	clm := d.verifyClaims(t, out.SessionToken)
	require.Equal(t, d.clock.now.Add(30*24*time.Hour).Unix(), clm.ExpiresAt.Unix())
}
