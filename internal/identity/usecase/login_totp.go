package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
	"github.com/gobackend-labs/authcore/internal/pkg/mfa"
)

type VerifyTOTPChallengeInput struct {
	ChallengeToken string `validate:"required"`
	Code           string `validate:"required"`
	Remember       bool
	// TrustDevice requests a trusted-device token so the next logins on this
	// device skip the second factor.
	TrustDevice bool
}

type VerifyTOTPChallengeOutput struct {
	SessionToken string
	DeviceToken  string
}

// VerifyTOTPChallenge completes a pending login challenge with an
// authenticator code.
func (s *Usecase) VerifyTOTPChallenge(ctx context.Context, in VerifyTOTPChallengeInput) (*VerifyTOTPChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyTOTPChallenge")
	defer span.End()

	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if !s.isValidTOTPCode(in.Code) {
		slog.WarnContext(ctx, "totp code is not valid", "code", in.Code)
		return nil, goerror.NewBusiness("invalid challenge session or code", goerror.CodeUnauthorized)
	}

	ca, err := s.loadChallengeAccount(ctx, in.ChallengeToken, entity.ChallengePurposeMFALogin)
	if err != nil {
		return nil, err
	}

	if err := s.ensureAccountStatusAllowed(ctx, ca.AccountID, ca.AccountStatus); err != nil {
		return nil, err
	}

	if err := s.checkRateLimit(ctx, "2fa", rateLimitIdentity(ca.AccountID)); err != nil {
		return nil, err
	}

	if err := s.verifyTOTP(ctx, ca.AccountID, in.Code); err != nil {
		return nil, err
	}

	if err := s.repoDB.DeleteChallenge(ctx, ca.ChallengeID); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete challange", "account_id", ca.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.resetRateLimit(ctx, "2fa", rateLimitIdentity(ca.AccountID))

	token, err := s.issueSession(ctx, ca.AccountID, ca.AccountEmail, true, in.Remember)
	if err != nil {
		return nil, err
	}

	out := &VerifyTOTPChallengeOutput{SessionToken: token}

	if in.TrustDevice {
		devToken, err := s.issueTrustedDevice(ctx, ca.AccountID)
		if err != nil {
			return nil, err
		}
		out.DeviceToken = devToken
	}

	return out, nil
}

func (s *Usecase) isValidTOTPCode(code string) bool {
	if len(code) != 6 { // 6 is length of totp
		return false
	}

	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}

	return true
}

func (s *Usecase) loadChallengeAccount(ctx context.Context, token string, purpose entity.ChallengePurpose) (*entity.ChallengeAccount, error) {
	cTokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash token challange", "error", err)
		return nil, goerror.NewServer(err)
	}

	ca, err := s.repoDB.GetChallengeAccountByTokenPurpose(ctx, string(cTokenHash), purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "challenge not found or expired", "purpose", purpose)
		return nil, goerror.NewBusiness("invalid challenge session or code", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get challange by token purpose", "purpose", purpose, "error", err)
		return nil, goerror.NewServer(err)
	}

	return ca, nil
}

func (s *Usecase) verifyTOTP(ctx context.Context, accountID int64, code string) error {
	tf, err := s.repoDB.GetTwoFactor(ctx, accountID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "two-factor not enabled", "account_id", accountID)
		return goerror.NewBusiness("invalid challenge session or code", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get two-factor", "account_id", accountID, "error", err)
		return goerror.NewServer(err)
	}

	secretBytes, err := s.mfaEncryptor.Decrypt(tf.Secret, mfa.Scope{
		UserID:  accountID,
		Purpose: mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "account_id", accountID, "error", err)
		return goerror.NewServer(err)
	}

	if !s.totp.Validate(code, string(secretBytes), s.clock.Now()) {
		slog.WarnContext(ctx, "invalid totp code", "account_id", accountID)
		return goerror.NewBusiness("invalid challenge session or code", goerror.CodeUnauthorized)
	}

	return nil
}
