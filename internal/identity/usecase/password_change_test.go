package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

const newTestPassword = "N3wSecret!pass"

func credentialFixture(t *testing.T, d *testDeps, accountID int64) *entity.AccountCredentialInfo {
	t.Helper()

	acct := &entity.AccountCredentialInfo{
		ID:       accountID,
		Email:    "user@example.com",
		Status:   entity.AccountStatusActive,
		Password: mustHash(t, d.bcrypt, testPassword),
	}
	d.repo.getAccountCredentialInfo = func(id int64) (*entity.AccountCredentialInfo, error) {
		if id != accountID {
			return nil, goerror.ErrNotFound
		}
		return acct, nil
	}

	return acct
}

func TestPasswordChangeRequiresAuthentication(t *testing.T) {
	d := newTestUsecase(t)

	err := d.uc.PasswordChange(context.Background(), PasswordChangeInput{
		CurrentPassword: testPassword,
		NewPassword:     newTestPassword,
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
}

func TestPasswordChangeWrongCurrentPassword(t *testing.T) {
	d := newTestUsecase(t)
	credentialFixture(t, d, 7)

	err := d.uc.PasswordChange(d.authedCtx(7, "user@example.com"), PasswordChangeInput{
		CurrentPassword: "wrong-password",
		NewPassword:     newTestPassword,
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Equal(t, "invalid password", ge.Msg())
	require.Empty(t, d.repo.passwordUpdates)
}

func TestPasswordChangeRejectsCurrentPasswordReuse(t *testing.T) {
	d := newTestUsecase(t)
	credentialFixture(t, d, 7)

	err := d.uc.PasswordChange(d.authedCtx(7, "user@example.com"), PasswordChangeInput{
		CurrentPassword: testPassword,
		NewPassword:     testPassword,
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeInvalidInput, ge.Code())
	require.Equal(t, "new password was used recently", ge.Msg())
}

func TestPasswordChangeRejectsRecentHistoryReuse(t *testing.T) {
	d := newTestUsecase(t)
	credentialFixture(t, d, 7)
	d.repo.getPasswordHistory = func(int64, int32) ([]entity.PasswordHistory, error) {
		return []entity.PasswordHistory{
			{ID: 1, AccountID: 7, Password: mustHash(t, d.bcrypt, "OldSecret!one1")},
			{ID: 2, AccountID: 7, Password: mustHash(t, d.bcrypt, newTestPassword)},
		}, nil
	}

	err := d.uc.PasswordChange(d.authedCtx(7, "user@example.com"), PasswordChangeInput{
		CurrentPassword: testPassword,
		NewPassword:     newTestPassword,
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeInvalidInput, ge.Code())
	require.Equal(t, "new password was used recently", ge.Msg())
	require.Empty(t, d.repo.passwordUpdates)
}

func TestPasswordChangeQueriesBoundedHistory(t *testing.T) {
	d := newTestUsecase(t)
	credentialFixture(t, d, 7)

	// A password older than the retained window is acceptable again: the store
	// is only asked for the newest entries up to the retention limit.
	err := d.uc.PasswordChange(d.authedCtx(7, "user@example.com"), PasswordChangeInput{
		CurrentPassword: testPassword,
		NewPassword:     newTestPassword,
	})

	require.NoError(t, err)
	require.Equal(t, []int32{entity.PasswordHistoryLimit}, d.repo.historyLimits)
}

func TestPasswordChangeSuccess(t *testing.T) {
	d := newTestUsecase(t)
	acct := credentialFixture(t, d, 7)

	err := d.uc.PasswordChange(d.authedCtx(7, acct.Email), PasswordChangeInput{
		CurrentPassword: testPassword,
		NewPassword:     newTestPassword,
	})

	require.NoError(t, err)

	require.Len(t, d.repo.passwordUpdates, 1)
	upd := d.repo.passwordUpdates[0]
	require.Equal(t, acct.ID, upd.AccountID)
	require.Equal(t, acct.Password, upd.OldHash)
	require.Equal(t, entity.PasswordHistoryLimit, upd.HistoryLimit)
	require.Zero(t, upd.ChallengeID)
	require.True(t, d.bcrypt.Verify(upd.NewHash, newTestPassword))

	// Prior sessions are stamped out.
	require.Contains(t, d.denylist.deniedAccounts, acct.ID)
	require.Equal(t, d.clock.now, d.denylist.deniedAccounts[acct.ID])

	d.waitAlerts(t)
	require.Equal(t, []string{AlertKindPasswordChanged}, d.msg.alertKinds())
}

func TestPasswordChangeRejectsWeakPassword(t *testing.T) {
	d := newTestUsecase(t)

	err := d.uc.PasswordChange(d.authedCtx(7, "user@example.com"), PasswordChangeInput{
		CurrentPassword: testPassword,
		NewPassword:     "short",
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeInvalidInput, ge.Code())
}
