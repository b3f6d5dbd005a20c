package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

type RedeemRecoveryCodeInput struct {
	ChallengeToken string `validate:"required"`
	Code           string `validate:"required,len=8,hexadecimal"`
	Remember       bool
}

type RedeemRecoveryCodeOutput struct {
	SessionToken string
	// TwoFactorDisabled is always true on success: redeeming a recovery code
	// turns the second factor off and discards the remaining codes.
	TwoFactorDisabled bool
}

// RedeemRecoveryCode completes a pending login challenge with a single-use
// recovery code. On success the account's two-factor enrollment is removed
// together with all remaining codes, in the same transaction that consumes
// the redeemed code.
func (s *Usecase) RedeemRecoveryCode(ctx context.Context, in RedeemRecoveryCodeInput) (*RedeemRecoveryCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "RedeemRecoveryCode")
	defer span.End()

	in.Code = strings.ToLower(strings.TrimSpace(in.Code))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
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

	codes, err := s.repoDB.GetRecoveryCodes(ctx, ca.AccountID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get recovery codes", "account_id", ca.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	var match *entity.RecoveryCode
	for i := range codes {
		if codes[i].Used {
			continue
		}
		if s.argon2id.Verify(codes[i].Code, in.Code) {
			match = &codes[i]
			break
		}
	}

	if match == nil {
		slog.WarnContext(ctx, "recovery code not match", "account_id", ca.AccountID)
		return nil, goerror.NewBusiness("invalid challenge session or code", goerror.CodeUnauthorized)
	}

	consumed, err := s.repoDB.ConsumeRecoveryCode(ctx, match.ID, ca.AccountID, ca.ChallengeID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume recovery code", "account_id", ca.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !consumed {
		slog.WarnContext(ctx, "recovery code already used", "account_id", ca.AccountID)
		return nil, goerror.NewBusiness("invalid challenge session or code", goerror.CodeUnauthorized)
	}

	s.resetRateLimit(ctx, "2fa", rateLimitIdentity(ca.AccountID))

	s.publishSecurityAlert(ctx, ca.AccountID, ca.AccountEmail, AlertKindRecoveryCodeUsed)
	s.publishSecurityAlert(ctx, ca.AccountID, ca.AccountEmail, AlertKindTwoFactorDisabled)

	token, err := s.issueSession(ctx, ca.AccountID, ca.AccountEmail, true, in.Remember)
	if err != nil {
		return nil, err
	}

	return &RedeemRecoveryCodeOutput{
		SessionToken:      token,
		TwoFactorDisabled: true,
	}, nil
}
