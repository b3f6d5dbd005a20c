package usecase

import (
	"context"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
	"github.com/gobackend-labs/authcore/internal/pkg/jwt"
)

func TestLogoutRequiresAuthentication(t *testing.T) {
	d := newTestUsecase(t)

	err := d.uc.Logout(context.Background(), LogoutInput{})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
}

func TestLogoutDeniesSessionToken(t *testing.T) {
	d := newTestUsecase(t)

	err := d.uc.Logout(d.authedCtx(7, "user@example.com"), LogoutInput{})

	require.NoError(t, err)
	// Revoked until the token would have expired anyway.
	require.Equal(t, time.Hour, d.denylist.deniedTokens["jti-session"])
	require.Empty(t, d.repo.deletedDevices)
}

func TestLogoutRevokesPresentedDeviceOnly(t *testing.T) {
	d := newTestUsecase(t)

	err := d.uc.Logout(d.authedCtx(7, "user@example.com"), LogoutInput{DeviceToken: "device-token"})

	require.NoError(t, err)
	require.Len(t, d.repo.deletedDevices, 1)
	require.Equal(t, "7", d.repo.deletedDevices[0][0])
	require.Equal(t, mustHash(t, d.hmac, "device-token"), d.repo.deletedDevices[0][1])
	// No blanket sweep of the account's other devices.
	require.Empty(t, d.repo.deletedDeviceSweeps)
}

func TestLogoutWithoutTokenIDSkipsDenylist(t *testing.T) {
	d := newTestUsecase(t)

	ctx := jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ExpiresAt: libJWT.NewNumericDate(d.clock.now.Add(time.Hour)),
		},
		AccountID: 7,
		Email:     "user@example.com",
	})

	err := d.uc.Logout(ctx, LogoutInput{})

	require.NoError(t, err)
	require.Empty(t, d.denylist.deniedTokens)
}
