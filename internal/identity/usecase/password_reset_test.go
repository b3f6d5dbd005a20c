package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

func TestPasswordForgotUnknownEmailStaysQuiet(t *testing.T) {
	d := newTestUsecase(t)

	err := d.uc.PasswordForgot(context.Background(), PasswordForgotInput{Email: "ghost@example.com"})

	// Same outcome as a known email so accounts cannot be probed.
	require.NoError(t, err)
	require.Empty(t, d.repo.createdChallenges)
	require.Empty(t, d.msg.resets)
}

func TestPasswordForgotIneligibleAccountStaysQuiet(t *testing.T) {
	d := newTestUsecase(t)
	d.repo.getAccountByEmail = func(string, bool) (*entity.Account, error) {
		return &entity.Account{ID: 7, Email: "user@example.com", Status: entity.AccountStatusBanned}, nil
	}

	err := d.uc.PasswordForgot(context.Background(), PasswordForgotInput{Email: "user@example.com"})

	require.NoError(t, err)
	require.Empty(t, d.repo.createdChallenges)
	require.Empty(t, d.msg.resets)
}

func TestPasswordForgotCreatesResetChallenge(t *testing.T) {
	d := newTestUsecase(t)
	d.repo.getAccountByEmail = func(string, bool) (*entity.Account, error) {
		return &entity.Account{ID: 7, Email: "user@example.com", Status: entity.AccountStatusActive}, nil
	}

	err := d.uc.PasswordForgot(context.Background(), PasswordForgotInput{Email: "USER@example.com"})

	require.NoError(t, err)

	require.Len(t, d.repo.createdChallenges, 1)
	chal := d.repo.createdChallenges[0]
	require.Equal(t, entity.ChallengePurposePasswordReset, chal.Purpose)
	require.Equal(t, d.clock.now.Add(time.Hour), chal.ExpiresAt)

	require.Len(t, d.msg.resets, 1)
	evt := d.msg.resets[0]
	require.Equal(t, int64(7), evt.AccountID)
	require.Equal(t, mustHash(t, d.hmac, evt.ChallengeToken), chal.Token)
}

func TestPasswordForgotRateLimited(t *testing.T) {
	d := newTestUsecase(t)
	d.limiter.deny = true
	d.limiter.retryAfter = 5 * time.Minute

	err := d.uc.PasswordForgot(context.Background(), PasswordForgotInput{Email: "user@example.com"})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeTooManyRequest, ge.Code())
	require.Equal(t, "300", ge.Fields()["retry_after_seconds"])
	require.Contains(t, d.limiter.allowKeys, "password_forgot:user@example.com")
}

func TestPasswordResetSuccess(t *testing.T) {
	d := newTestUsecase(t)
	acct := credentialFixture(t, d, 7)
	d.challengeFor(t, entity.ChallengeAccount{
		ChallengeID:      500,
		ChallengePurpose: entity.ChallengePurposePasswordReset,
		AccountID:        7,
		AccountEmail:     acct.Email,
		AccountStatus:    entity.AccountStatusActive,
	}, "reset-token")

	err := d.uc.PasswordReset(context.Background(), PasswordResetInput{
		ChallengeToken: "reset-token",
		NewPassword:    newTestPassword,
	})

	require.NoError(t, err)

	require.Len(t, d.repo.passwordUpdates, 1)
	upd := d.repo.passwordUpdates[0]
	require.Equal(t, acct.ID, upd.AccountID)
	// The reset challenge is consumed inside the same rotation.
	require.Equal(t, int64(500), upd.ChallengeID)
	require.True(t, d.bcrypt.Verify(upd.NewHash, newTestPassword))

	require.Contains(t, d.denylist.deniedAccounts, acct.ID)

	d.waitAlerts(t)
	require.Equal(t, []string{AlertKindPasswordChanged}, d.msg.alertKinds())
}

func TestPasswordResetRejectsReusedPassword(t *testing.T) {
	d := newTestUsecase(t)
	acct := credentialFixture(t, d, 7)
	d.challengeFor(t, entity.ChallengeAccount{
		ChallengeID:      500,
		ChallengePurpose: entity.ChallengePurposePasswordReset,
		AccountID:        7,
		AccountEmail:     acct.Email,
		AccountStatus:    entity.AccountStatusActive,
	}, "reset-token")

	err := d.uc.PasswordReset(context.Background(), PasswordResetInput{
		ChallengeToken: "reset-token",
		NewPassword:    testPassword,
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeInvalidInput, ge.Code())
	require.Equal(t, "new password was used recently", ge.Msg())
	require.Empty(t, d.repo.passwordUpdates)
}

func TestPasswordResetUnknownChallenge(t *testing.T) {
	d := newTestUsecase(t)

	err := d.uc.PasswordReset(context.Background(), PasswordResetInput{
		ChallengeToken: "bogus",
		NewPassword:    newTestPassword,
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Equal(t, "invalid challenge session or code", ge.Msg())
}
