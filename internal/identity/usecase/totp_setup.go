package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
	"github.com/gobackend-labs/authcore/internal/pkg/mfa"
	"github.com/gobackend-labs/authcore/internal/pkg/valueobject"
)

type EnrollTOTPInput struct {
	CurrentPassword string `validate:"required"`
}

type EnrollTOTPOutput struct {
	ChallengeToken string
	Key            string
	URI            string
	// QRCode is the provisioning URI rendered as a base64 PNG.
	QRCode string
}

// EnrollTOTP stages a new authenticator enrollment. The generated seed is
// encrypted and parked on a short-lived challenge; nothing touches the
// account until the first code is verified.
func (s *Usecase) EnrollTOTP(ctx context.Context, in EnrollTOTPInput) (*EnrollTOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "EnrollTOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	acct, err := s.repoDB.GetAccountCredentialInfo(ctx, clm.AccountID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "account_id", clm.AccountID)
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by id", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.bcrypt.Verify(acct.Password, in.CurrentPassword) {
		slog.WarnContext(ctx, "account password not match", "account_id", acct.ID)
		return nil, goerror.NewBusiness("invalid password", goerror.CodeUnauthorized)
	}

	if err := s.ensureAccountStatusAllowed(ctx, acct.ID, acct.Status); err != nil {
		return nil, err
	}

	if err := s.ensureTwoFactorNotEnabled(ctx, acct.ID); err != nil {
		return nil, err
	}

	secret, uri, err := s.totp.Generate(acct.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "account_id", acct.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	encryptedSecret, err := s.mfaEncryptor.Encrypt([]byte(secret), mfa.Scope{
		UserID:  acct.ID,
		Purpose: mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "account_id", acct.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	qrCode, err := s.qr.EncodeProvisioningURI(uri)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render provisioning qr code", "account_id", acct.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	cToken := s.oid.Generate()
	cTokenHash, err := s.hmac.Hash(cToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash token challange", "error", err)
		return nil, goerror.NewServer(err)
	}

	challenge := entity.Challenge{
		ID:        s.uid.Generate(),
		AccountID: acct.ID,
		Token:     string(cTokenHash),
		Purpose:   entity.ChallengePurposeTOTPEnroll,
		ExpiresAt: s.clock.Now().Add(s.cfg.GetMinute("modules.identity.totp_enroll_ttl_minutes")),
		Metadata: valueobject.JSONMap{
			"secret":      base64.StdEncoding.EncodeToString(encryptedSecret),
			"key_version": 1, // can be use config later
		},
	}

	if err := s.repoDB.CreateChallenge(ctx, challenge); err != nil {
		slog.ErrorContext(ctx, "failed to create enroll challenge", "account_id", acct.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &EnrollTOTPOutput{
		ChallengeToken: cToken,
		Key:            secret,
		URI:            uri,
		QRCode:         qrCode,
	}, nil
}

func (s *Usecase) ensureTwoFactorNotEnabled(ctx context.Context, accountID int64) error {
	_, err := s.repoDB.GetTwoFactor(ctx, accountID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get two-factor", "account_id", accountID, "error", err)
		return goerror.NewServer(err)
	}

	return goerror.NewBusiness("two-factor authentication already enabled", goerror.CodeConflict)
}
