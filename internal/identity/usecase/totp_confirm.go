package usecase

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
	"github.com/gobackend-labs/authcore/internal/pkg/mfa"
)

type VerifyTOTPEnrollmentInput struct {
	ChallengeToken string `validate:"required"`
	Code           string `validate:"required,len=6,numeric"`
	// TrustDevice requests a trusted-device token so the next logins on this
	// device skip the second factor.
	TrustDevice bool
}

type VerifyTOTPEnrollmentOutput struct {
	// RecoveryCodes are shown exactly once; only their keyed hashes survive.
	RecoveryCodes []string
	// SessionToken replaces the caller's session, now marked as having passed
	// the second factor.
	SessionToken string
	DeviceToken  string
}

// VerifyTOTPEnrollment proves possession of the staged authenticator seed and
// atomically enables the second factor together with a fresh batch of
// recovery codes.
func (s *Usecase) VerifyTOTPEnrollment(ctx context.Context, in VerifyTOTPEnrollmentInput) (*VerifyTOTPEnrollmentOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyTOTPEnrollment")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	ca, err := s.loadChallengeAccount(ctx, in.ChallengeToken, entity.ChallengePurposeTOTPEnroll)
	if err != nil {
		return nil, err
	}

	if err := s.ensureAccountStatusAllowed(ctx, ca.AccountID, ca.AccountStatus); err != nil {
		return nil, err
	}

	if ca.AccountID != clm.AccountID {
		slog.WarnContext(ctx, "challenge account mismatch", "account_id", clm.AccountID, "challenge_account_id", ca.AccountID)
		return nil, goerror.NewBusiness("invalid challenge session", goerror.CodeUnauthorized)
	}

	if err := s.ensureTwoFactorNotEnabled(ctx, ca.AccountID); err != nil {
		return nil, err
	}

	secretCiphertext, keyVersion, err := s.stagedEnrollmentSecret(ctx, ca)
	if err != nil {
		return nil, err
	}

	secretBytes, err := s.mfaEncryptor.Decrypt(secretCiphertext, mfa.Scope{
		UserID:  ca.AccountID,
		Purpose: mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "account_id", ca.AccountID, "challenge_id", ca.ChallengeID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.totp.Validate(in.Code, string(secretBytes), s.clock.Now()) {
		slog.WarnContext(ctx, "invalid totp code", "account_id", ca.AccountID, "challenge_id", ca.ChallengeID)
		return nil, goerror.NewBusiness("invalid code", goerror.CodeUnauthorized)
	}

	plainCodes, err := s.mfaRecoveryCode.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate recovery codes", "account_id", ca.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	hashedCodes := make([]entity.RecoveryCode, 0, len(plainCodes))
	for _, code := range plainCodes {
		h, err := s.argon2id.Hash(code)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash recovery code", "account_id", ca.AccountID, "error", err)
			return nil, goerror.NewServer(err)
		}

		hashedCodes = append(hashedCodes, entity.RecoveryCode{
			ID:        s.uid.Generate(),
			AccountID: ca.AccountID,
			Code:      string(h),
		})
	}

	tf := entity.TwoFactor{
		AccountID:  ca.AccountID,
		Secret:     secretCiphertext,
		KeyVersion: keyVersion,
		EnabledAt:  s.clock.Now(),
	}

	if err := s.repoDB.EnableTwoFactor(ctx, tf, hashedCodes, ca.ChallengeID); err != nil {
		slog.ErrorContext(ctx, "failed to repo enable two-factor", "account_id", ca.AccountID, "challenge_id", ca.ChallengeID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishSecurityAlert(ctx, ca.AccountID, ca.AccountEmail, AlertKindTwoFactorEnabled)

	token, err := s.issueSession(ctx, ca.AccountID, ca.AccountEmail, true, false)
	if err != nil {
		return nil, err
	}

	out := &VerifyTOTPEnrollmentOutput{
		RecoveryCodes: plainCodes,
		SessionToken:  token,
	}

	if in.TrustDevice {
		devToken, err := s.issueTrustedDevice(ctx, ca.AccountID)
		if err != nil {
			return nil, err
		}
		out.DeviceToken = devToken
	}

	return out, nil
}

func (s *Usecase) stagedEnrollmentSecret(ctx context.Context, ca *entity.ChallengeAccount) ([]byte, int16, error) {
	secretEncoded := ca.ChallengeMetadata.GetString("secret")
	if secretEncoded == "" {
		slog.WarnContext(ctx, "challenge missing totp secret", "account_id", ca.AccountID, "challenge_id", ca.ChallengeID)
		return nil, 0, goerror.NewBusiness("invalid challenge session", goerror.CodeUnauthorized)
	}

	secretCiphertext, err := base64.StdEncoding.DecodeString(secretEncoded)
	if err != nil {
		slog.WarnContext(ctx, "challenge totp secret decode failed", "account_id", ca.AccountID, "challenge_id", ca.ChallengeID, "error", err)
		return nil, 0, goerror.NewBusiness("invalid challenge session", goerror.CodeUnauthorized)
	}

	keyVersion := ca.ChallengeMetadata.GetInt("key_version")
	if keyVersion == 0 {
		keyVersion = 1
	}

	return secretCiphertext, int16(keyVersion), nil
}
