package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

func TestRegisterSuccess(t *testing.T) {
	d := newTestUsecase(t)

	err := d.uc.Register(context.Background(), RegisterInput{
		Email:        " New.User@Example.com ",
		Password:     testPassword,
		CaptchaToken: "captcha-ok",
	})

	require.NoError(t, err)

	require.Len(t, d.repo.registrations, 1)
	acct := d.repo.registrations[0]
	require.Equal(t, "new.user@example.com", acct.Email)
	require.Equal(t, entity.AccountStatusUnverified, acct.Status)

	require.Len(t, d.repo.createdChallenges, 1)
	chal := d.repo.createdChallenges[0]
	require.Equal(t, entity.ChallengePurposeRegisterVerify, chal.Purpose)
	require.Equal(t, d.clock.now.Add(24*time.Hour), chal.ExpiresAt)

	require.Len(t, d.msg.registrations, 1)
	evt := d.msg.registrations[0]
	require.Equal(t, acct.ID, evt.AccountID)
	require.Equal(t, acct.Email, evt.Email)
	// The emailed token is the plaintext, the stored one its keyed hash.
	require.Equal(t, mustHash(t, d.hmac, evt.ChallengeToken), chal.Token)
}

func TestRegisterExistingAccountConflicts(t *testing.T) {
	tests := []struct {
		status   entity.AccountStatus
		wantCode goerror.Code
		wantMsg  string
	}{
		{status: entity.AccountStatusActive, wantCode: goerror.CodeConflict, wantMsg: "Email already registered"},
		{status: entity.AccountStatusUnverified, wantCode: goerror.CodeConflict, wantMsg: "Account not verified"},
		{status: entity.AccountStatusInactive, wantCode: goerror.CodeConflict, wantMsg: "Account deactivated"},
		{status: entity.AccountStatusBanned, wantCode: goerror.CodeForbidden, wantMsg: "Account not allowed"},
	}

	for _, tc := range tests {
		d := newTestUsecase(t)
		d.repo.getAccountByEmail = func(string, bool) (*entity.Account, error) {
			return &entity.Account{ID: 7, Email: "user@example.com", Status: tc.status}, nil
		}

		err := d.uc.Register(context.Background(), RegisterInput{
			Email:        "user@example.com",
			Password:     testPassword,
			CaptchaToken: "captcha-ok",
		})

		ge := asGoError(t, err)
		require.Equal(t, tc.wantCode, ge.Code(), "status=%s", tc.status)
		require.Equal(t, tc.wantMsg, ge.Msg(), "status=%s", tc.status)
	}
}

func TestRegisterChecksDeletedAccountsToo(t *testing.T) {
	d := newTestUsecase(t)

	var gotIncludeDeleted bool
	d.repo.getAccountByEmail = func(_ string, includeDeleted bool) (*entity.Account, error) {
		gotIncludeDeleted = includeDeleted
		return nil, goerror.ErrNotFound
	}

	err := d.uc.Register(context.Background(), RegisterInput{
		Email:        "user@example.com",
		Password:     testPassword,
		CaptchaToken: "captcha-ok",
	})

	require.NoError(t, err)
	require.True(t, gotIncludeDeleted)
}

func TestRegisterVerifyActivatesAccount(t *testing.T) {
	d := newTestUsecase(t)
	d.challengeFor(t, entity.ChallengeAccount{
		ChallengeID:      400,
		ChallengePurpose: entity.ChallengePurposeRegisterVerify,
		AccountID:        7,
		AccountEmail:     "user@example.com",
		AccountStatus:    entity.AccountStatusUnverified,
	}, "verify-token")

	err := d.uc.RegisterVerify(context.Background(), RegisterVerifyInput{ChallengeToken: "verify-token"})

	require.NoError(t, err)
	require.Equal(t, []entity.VerifyRegistration{{
		ChallengeID: 400,
		AccountID:   7,
		OldStatus:   entity.AccountStatusUnverified,
		NewStatus:   entity.AccountStatusActive,
	}}, d.repo.verifiedRegistrations)
}

func TestRegisterVerifyIdempotentForActiveAccount(t *testing.T) {
	d := newTestUsecase(t)
	d.challengeFor(t, entity.ChallengeAccount{
		ChallengeID:      400,
		ChallengePurpose: entity.ChallengePurposeRegisterVerify,
		AccountID:        7,
		AccountEmail:     "user@example.com",
		AccountStatus:    entity.AccountStatusActive,
	}, "verify-token")

	err := d.uc.RegisterVerify(context.Background(), RegisterVerifyInput{ChallengeToken: "verify-token"})

	require.NoError(t, err)
	require.Empty(t, d.repo.verifiedRegistrations)
	require.Equal(t, []int64{400}, d.repo.deletedChallenges)
}

func TestRegisterVerifyUnknownToken(t *testing.T) {
	d := newTestUsecase(t)

	err := d.uc.RegisterVerify(context.Background(), RegisterVerifyInput{ChallengeToken: "bogus"})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Equal(t, "invalid verification token", ge.Msg())
}
