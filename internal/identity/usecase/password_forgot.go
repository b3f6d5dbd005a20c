package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

type PasswordForgotInput struct {
	Email string `validate:"required,email"`
}

// PasswordForgot starts a password reset. The outcome is identical whether
// the email exists or not, so the endpoint cannot be used to probe accounts.
func (s *Usecase) PasswordForgot(ctx context.Context, in PasswordForgotInput) error {
	ctx, span := s.startSpan(ctx, "PasswordForgot")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.checkRateLimit(ctx, "password_forgot", in.Email); err != nil {
		return err
	}

	acct, err := s.repoDB.GetAccountByEmail(ctx, in.Email, false)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password reset requested for unavailable account", "email", in.Email)
		return nil
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to repo get account by email", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.ensureAccountStatusAllowed(ctx, acct.ID, acct.Status); err != nil {
		slog.WarnContext(ctx, "password reset requested for ineligible account", "account_id", acct.ID, "status", acct.Status.String(), "error", err)
		return nil
	}

	cToken := s.oid.Generate()
	cTokenHash, err := s.hmac.Hash(cToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash token", "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.CreateChallenge(ctx, entity.Challenge{
		ID:        s.uid.Generate(),
		AccountID: acct.ID,
		Token:     string(cTokenHash),
		Purpose:   entity.ChallengePurposePasswordReset,
		ExpiresAt: s.clock.Now().Add(s.cfg.GetHour("modules.identity.password_reset_ttl_hours")),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create password reset challenge", "account_id", acct.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishPasswordResetRequest(ctx, PasswordResetRequestEvent{
		AccountID:      acct.ID,
		Email:          acct.Email,
		ChallengeToken: cToken,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish password reset request", "account_id", acct.ID, "error", err)
	}

	return nil
}
