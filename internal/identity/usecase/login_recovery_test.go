package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

// recoveryFixture stages a pending login challenge and a stored batch of
// hashed recovery codes.
func recoveryFixture(t *testing.T, d *testDeps, accountID int64, token string, codes []entity.RecoveryCode) {
	t.Helper()

	d.challengeFor(t, entity.ChallengeAccount{
		ChallengeID:      200,
		ChallengePurpose: entity.ChallengePurposeMFALogin,
		AccountID:        accountID,
		AccountEmail:     "user@example.com",
		AccountStatus:    entity.AccountStatusActive,
	}, token)

	d.repo.getRecoveryCodes = func(id int64) ([]entity.RecoveryCode, error) {
		if id != accountID {
			return nil, nil
		}
		return codes, nil
	}
}

func TestRedeemRecoveryCodeSuccess(t *testing.T) {
	d := newTestUsecase(t)
	recoveryFixture(t, d, 7, "challenge-token", []entity.RecoveryCode{
		{ID: 11, AccountID: 7, Code: mustHash(t, d.argon2id, "a1b2c3d4")},
		{ID: 12, AccountID: 7, Code: mustHash(t, d.argon2id, "deadbeef")},
	})

	out, err := d.uc.RedeemRecoveryCode(context.Background(), RedeemRecoveryCodeInput{
		ChallengeToken: "challenge-token",
		Code:           "deadbeef",
	})

	require.NoError(t, err)
	require.True(t, out.TwoFactorDisabled)

	clm := d.verifyClaims(t, out.SessionToken)
	require.Equal(t, int64(7), clm.AccountID)
	require.True(t, clm.TwoFactorVerified)

	require.Equal(t, [][3]int64{{12, 7, 200}}, d.repo.consumedCodes)

	d.waitAlerts(t)
	require.ElementsMatch(t, []string{AlertKindRecoveryCodeUsed, AlertKindTwoFactorDisabled}, d.msg.alertKinds())
}

func TestRedeemRecoveryCodeIsCaseInsensitive(t *testing.T) {
	d := newTestUsecase(t)
	recoveryFixture(t, d, 7, "challenge-token", []entity.RecoveryCode{
		{ID: 11, AccountID: 7, Code: mustHash(t, d.argon2id, "a1b2c3d4")},
	})

	out, err := d.uc.RedeemRecoveryCode(context.Background(), RedeemRecoveryCodeInput{
		ChallengeToken: "challenge-token",
		Code:           " A1B2C3D4 ",
	})

	require.NoError(t, err)
	require.NotEmpty(t, out.SessionToken)
}

func TestRedeemRecoveryCodeWrongCode(t *testing.T) {
	d := newTestUsecase(t)
	recoveryFixture(t, d, 7, "challenge-token", []entity.RecoveryCode{
		{ID: 11, AccountID: 7, Code: mustHash(t, d.argon2id, "a1b2c3d4")},
	})

	_, err := d.uc.RedeemRecoveryCode(context.Background(), RedeemRecoveryCodeInput{
		ChallengeToken: "challenge-token",
		Code:           "00000000",
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Equal(t, "invalid challenge session or code", ge.Msg())
	require.Empty(t, d.repo.consumedCodes)
}

func TestRedeemRecoveryCodeSkipsUsedCodes(t *testing.T) {
	d := newTestUsecase(t)
	recoveryFixture(t, d, 7, "challenge-token", []entity.RecoveryCode{
		{ID: 11, AccountID: 7, Code: mustHash(t, d.argon2id, "a1b2c3d4"), Used: true},
	})

	_, err := d.uc.RedeemRecoveryCode(context.Background(), RedeemRecoveryCodeInput{
		ChallengeToken: "challenge-token",
		Code:           "a1b2c3d4",
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Empty(t, d.repo.consumedCodes)
}

func TestRedeemRecoveryCodeLostConsumeRace(t *testing.T) {
	d := newTestUsecase(t)
	recoveryFixture(t, d, 7, "challenge-token", []entity.RecoveryCode{
		{ID: 11, AccountID: 7, Code: mustHash(t, d.argon2id, "a1b2c3d4")},
	})
	// A concurrent redemption consumed the code first.
	d.repo.consumeRecoveryCode = func(int64, int64, int64) (bool, error) { return false, nil }

	_, err := d.uc.RedeemRecoveryCode(context.Background(), RedeemRecoveryCodeInput{
		ChallengeToken: "challenge-token",
		Code:           "a1b2c3d4",
	})

	ge := asGoError(t, err)
	require.Equal(t, goerror.CodeUnauthorized, ge.Code())
	require.Equal(t, "invalid challenge session or code", ge.Msg())
}

func TestRedeemRecoveryCodeValidatesShape(t *testing.T) {
	d := newTestUsecase(t)

	tests := []string{"short", "a1b2c3d4e5", "zzzzzzzz"}
	for _, code := range tests {
		_, err := d.uc.RedeemRecoveryCode(context.Background(), RedeemRecoveryCodeInput{
			ChallengeToken: "challenge-token",
			Code:           code,
		})

		ge := asGoError(t, err)
		require.Equal(t, goerror.CodeInvalidInput, ge.Code(), "code=%q", code)
	}
}
