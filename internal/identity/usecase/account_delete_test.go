package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

func TestAccountDeleteRequiresAuthentication(t *testing.T) {
	d := newTestUsecase(t)

	err := d.uc.AccountDelete(context.Background(), AccountDeleteInput{Password: testPassword})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
}

func TestAccountDeleteWrongPassword(t *testing.T) {
	d := newTestUsecase(t)
	credentialFixture(t, d, 7)

	err := d.uc.AccountDelete(d.authedCtx(7, "user@example.com"), AccountDeleteInput{Password: "wrong-password"})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Equal(t, "invalid password", ge.Msg())
	require.Empty(t, d.repo.deletedAccounts)
}

func TestAccountDeleteSuccess(t *testing.T) {
	d := newTestUsecase(t)
	credentialFixture(t, d, 7)

	err := d.uc.AccountDelete(d.authedCtx(7, "user@example.com"), AccountDeleteInput{Password: testPassword})

	require.NoError(t, err)
	require.Equal(t, []int64{7}, d.repo.deletedAccounts)
	// Open sessions die with the account.
	require.Contains(t, d.denylist.deniedAccounts, int64(7))
}
