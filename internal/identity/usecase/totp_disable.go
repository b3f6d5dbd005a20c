package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

type DisableTOTPInput struct {
	Code string `validate:"required,len=6,numeric"`
}

// DisableTOTP turns the second factor off after a fresh authenticator code.
// Remaining recovery codes are purged in the same transaction. Trusted
// devices are kept: they gate the second factor, not the password.
func (s *Usecase) DisableTOTP(ctx context.Context, in DisableTOTPInput) error {
	ctx, span := s.startSpan(ctx, "DisableTOTP")
	defer span.End()

	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.checkRateLimit(ctx, "2fa", rateLimitIdentity(clm.AccountID)); err != nil {
		return err
	}

	if err := s.verifyTOTP(ctx, clm.AccountID, in.Code); err != nil {
		return err
	}

	if err := s.repoDB.DisableTwoFactor(ctx, clm.AccountID); err != nil {
		slog.ErrorContext(ctx, "failed to repo disable two-factor", "account_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	s.resetRateLimit(ctx, "2fa", rateLimitIdentity(clm.AccountID))
	s.publishSecurityAlert(ctx, clm.AccountID, clm.Email, AlertKindTwoFactorDisabled)

	return nil
}
