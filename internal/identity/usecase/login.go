package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Remember bool
	// DeviceToken is an optional trusted-device token from a prior login.
	DeviceToken string
}

type LoginOutput struct {
	TwoFactorRequired bool
	ChallengeToken    string
	//
	SessionToken string
}

// Login verifies the primary credential and decides whether a session can be
// issued directly, a second factor challenge is required, or the attempt is
// rejected.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := in.Email

	if err := s.checkRateLimit(ctx, "login", email); err != nil {
		return nil, err
	}

	acct, err := s.repoDB.GetAccountLoginInfo(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		// Burn a compare so unknown emails cost the same as wrong passwords.
		s.bcrypt.Verify(s.dummyHash, in.Password)
		slog.WarnContext(ctx, "account not found", "email", email)
		return nil, goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	if acct.LockedUntil != nil && now.Before(*acct.LockedUntil) {
		slog.WarnContext(ctx, "account is locked", "account_id", acct.ID, "locked_until", *acct.LockedUntil)
		return nil, goerror.NewLocked(*acct.LockedUntil)
	}

	if err := s.ensureAccountStatusAllowed(ctx, acct.ID, acct.Status); err != nil {
		return nil, err
	}

	if !s.bcrypt.Verify(acct.Password, in.Password) {
		return nil, s.registerLoginFailure(ctx, acct)
	}

	if acct.FailedAttempts > 0 {
		if err := s.repoDB.ResetLoginFailures(ctx, acct.ID); err != nil {
			slog.ErrorContext(ctx, "failed to reset login failures", "account_id", acct.ID, "error", err)
		}
	}
	s.resetRateLimit(ctx, "login", email)

	if acct.HasTwoFactor {
		if in.DeviceToken != "" {
			if ok := s.trustedDeviceValid(ctx, acct.ID, in.DeviceToken); ok {
				return s.loginWithSession(ctx, acct, true, in.Remember)
			}
		}

		return s.loginWithChallenge(ctx, acct)
	}

	return s.loginWithSession(ctx, acct, false, in.Remember)
}

func (s *Usecase) registerLoginFailure(ctx context.Context, acct *entity.AccountLoginInfo) error {
	slog.WarnContext(ctx, "account password not match", "account_id", acct.ID)

	lockUntil := s.clock.Now().Add(entity.LockoutDuration(acct.LockoutEscalations))
	state, err := s.repoDB.RegisterLoginFailure(ctx, acct.ID, entity.LockoutThreshold, lockUntil)
	if err != nil {
		slog.ErrorContext(ctx, "failed to register login failure", "account_id", acct.ID, "error", err)
		return goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
	}

	if state.LockedUntil != nil && s.clock.Now().Before(*state.LockedUntil) {
		slog.WarnContext(ctx, "account locked after repeated failures",
			"account_id", acct.ID, "locked_until", *state.LockedUntil, "escalations", state.LockoutEscalations)
		s.publishSecurityAlert(ctx, acct.ID, acct.Email, AlertKindLockout)
		return goerror.NewLocked(*state.LockedUntil)
	}

	return goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
}

func (s *Usecase) trustedDeviceValid(ctx context.Context, accountID int64, token string) bool {
	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash device token", "account_id", accountID, "error", err)
		return false
	}

	dev, err := s.repoDB.GetTrustedDevice(ctx, accountID, string(tokenHash))
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "trusted device not recognized", "account_id", accountID)
		return false
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get trusted device", "account_id", accountID, "error", err)
		return false
	}
	if dev == nil {
		return false
	}

	// The store also filters on expiry; the check here keeps an expired row
	// from bypassing the second factor regardless of how it was fetched.
	if !s.clock.Now().Before(dev.ExpiresAt) {
		slog.WarnContext(ctx, "trusted device expired", "account_id", accountID)
		return false
	}

	return true
}

func (s *Usecase) loginWithChallenge(ctx context.Context, acct *entity.AccountLoginInfo) (*LoginOutput, error) {
	cToken := s.oid.Generate()

	cTokenHash, err := s.hmac.Hash(cToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash token challange", "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.CreateChallenge(ctx, entity.Challenge{
		ID:        s.uid.Generate(),
		AccountID: acct.ID,
		Token:     string(cTokenHash),
		Purpose:   entity.ChallengePurposeMFALogin,
		ExpiresAt: s.clock.Now().Add(s.cfg.GetMinute("modules.identity.mfa_login_ttl_minutes")),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create challange", "account_id", acct.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{
		TwoFactorRequired: true,
		ChallengeToken:    cToken,
	}, nil
}

func (s *Usecase) loginWithSession(ctx context.Context, acct *entity.AccountLoginInfo, twoFactorVerified, remember bool) (*LoginOutput, error) {
	token, err := s.issueSession(ctx, acct.ID, acct.Email, twoFactorVerified, remember)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{SessionToken: token}, nil
}
