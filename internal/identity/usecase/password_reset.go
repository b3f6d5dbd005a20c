package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

type PasswordResetInput struct {
	ChallengeToken string `validate:"required"`
	NewPassword    string `validate:"required,password"`
}

// PasswordReset completes a reset started by PasswordForgot. It applies the
// same reuse guard and side effects as an authenticated password change.
func (s *Usecase) PasswordReset(ctx context.Context, in PasswordResetInput) error {
	ctx, span := s.startSpan(ctx, "PasswordReset")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	ca, err := s.loadChallengeAccount(ctx, in.ChallengeToken, entity.ChallengePurposePasswordReset)
	if err != nil {
		return err
	}

	if err := s.ensureAccountStatusAllowed(ctx, ca.AccountID, ca.AccountStatus); err != nil {
		return err
	}

	acct, err := s.repoDB.GetAccountCredentialInfo(ctx, ca.AccountID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "account_id", ca.AccountID)
		return goerror.NewBusiness("invalid challenge session or code", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account credential info", "account_id", ca.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.ensurePasswordNotReused(ctx, acct.ID, acct.Password, in.NewPassword); err != nil {
		return err
	}

	if err := s.rotatePassword(ctx, acct.ID, acct.Password, in.NewPassword, ca.ChallengeID); err != nil {
		return err
	}

	s.revokeSessionsIssuedBefore(ctx, acct.ID)
	s.publishSecurityAlert(ctx, acct.ID, acct.Email, AlertKindPasswordChanged)

	return nil
}
