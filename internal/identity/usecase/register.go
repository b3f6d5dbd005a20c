package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

type RegisterInput struct {
	Email        string `validate:"required,email"`
	Password     string `validate:"required,password"`
	CaptchaToken string `validate:"required"`
	RemoteIP     string
}

// Register creates an unverified account and sends an email verification
// challenge. Registration is the only flow gated by a captcha.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) error {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.captcha.Verify(ctx, in.CaptchaToken, in.RemoteIP); err != nil {
		slog.WarnContext(ctx, "captcha verification failed", "email", in.Email, "error", err)
		return goerror.NewBusiness("captcha verification failed", goerror.CodeInvalidInput)
	}

	acct, err := s.repoDB.GetAccountByEmail(ctx, in.Email, true)
	if err == nil {
		switch acct.Status {
		case entity.AccountStatusActive:
			return goerror.NewBusiness("Email already registered", goerror.CodeConflict)
		case entity.AccountStatusUnverified:
			return goerror.NewBusiness("Account not verified", goerror.CodeConflict)
		case entity.AccountStatusInactive:
			return goerror.NewBusiness("Account deactivated", goerror.CodeConflict)
		default:
			return goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
		}
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	hashedPassword, err := s.bcrypt.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return goerror.NewServer(err)
	}

	newAcct := entity.NewAccount{
		ID:     s.uid.Generate(),
		Email:  in.Email,
		Status: entity.AccountStatusUnverified,
	}

	cToken := s.oid.Generate()
	cTokenHash, err := s.hmac.Hash(cToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash token challange", "error", err)
		return goerror.NewServer(err)
	}

	challenge := entity.Challenge{
		ID:        s.uid.Generate(),
		AccountID: newAcct.ID,
		Token:     string(cTokenHash),
		Purpose:   entity.ChallengePurposeRegisterVerify,
		ExpiresAt: s.clock.Now().Add(s.cfg.GetHour("modules.identity.registration_ttl_hours")),
	}

	if err := s.repoDB.NewRegistration(ctx, newAcct, challenge, string(hashedPassword)); err != nil {
		slog.ErrorContext(ctx, "failed to repo account registration", "email", newAcct.Email, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishAccountRegistration(ctx, AccountRegistrationEvent{
		AccountID:      newAcct.ID,
		Email:          newAcct.Email,
		ChallengeToken: cToken,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish account registration", "account_id", newAcct.ID, "error", err)
	}

	return nil
}
