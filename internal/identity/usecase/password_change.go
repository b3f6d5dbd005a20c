package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

type PasswordChangeInput struct {
	CurrentPassword string `validate:"required"`
	NewPassword     string `validate:"required,password"`
}

// PasswordChange rotates the credential of the authenticated account. The new
// password must differ from the current one and from recent history; on
// success every trusted device is revoked and prior sessions are invalidated.
func (s *Usecase) PasswordChange(ctx context.Context, in PasswordChangeInput) error {
	ctx, span := s.startSpan(ctx, "PasswordChange")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.checkRateLimit(ctx, "password_change", rateLimitIdentity(clm.AccountID)); err != nil {
		return err
	}

	acct, err := s.repoDB.GetAccountCredentialInfo(ctx, clm.AccountID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "account_id", clm.AccountID)
		return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account credential info", "account_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.ensureAccountStatusAllowed(ctx, acct.ID, acct.Status); err != nil {
		return err
	}

	if !s.bcrypt.Verify(acct.Password, in.CurrentPassword) {
		slog.WarnContext(ctx, "current password mismatch", "account_id", acct.ID)
		return goerror.NewBusiness("invalid password", goerror.CodeUnauthorized)
	}

	if err := s.ensurePasswordNotReused(ctx, acct.ID, acct.Password, in.NewPassword); err != nil {
		return err
	}

	if err := s.rotatePassword(ctx, acct.ID, acct.Password, in.NewPassword, 0); err != nil {
		return err
	}

	s.revokeSessionsIssuedBefore(ctx, acct.ID)
	s.resetRateLimit(ctx, "password_change", rateLimitIdentity(acct.ID))
	s.publishSecurityAlert(ctx, acct.ID, acct.Email, AlertKindPasswordChanged)

	return nil
}

// ensurePasswordNotReused rejects a candidate matching the current credential
// or any of the retained history entries.
func (s *Usecase) ensurePasswordNotReused(ctx context.Context, accountID int64, currentHash, candidate string) error {
	if s.bcrypt.Verify(currentHash, candidate) {
		slog.WarnContext(ctx, "new password matches current password", "account_id", accountID)
		return goerror.NewBusiness("new password was used recently", goerror.CodeInvalidInput)
	}

	history, err := s.repoDB.GetPasswordHistory(ctx, accountID, entity.PasswordHistoryLimit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get password history", "account_id", accountID, "error", err)
		return goerror.NewServer(err)
	}

	for i := range history {
		if s.bcrypt.Verify(history[i].Password, candidate) {
			slog.WarnContext(ctx, "new password matches password history", "account_id", accountID)
			return goerror.NewBusiness("new password was used recently", goerror.CodeInvalidInput)
		}
	}

	return nil
}

func (s *Usecase) rotatePassword(ctx context.Context, accountID int64, oldHash, newPassword string, challengeID int64) error {
	newHash, err := s.bcrypt.Hash(newPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new password", "account_id", accountID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.UpdatePassword(ctx, entity.PasswordUpdate{
		AccountID:    accountID,
		HistoryID:    s.uid.Generate(),
		OldHash:      oldHash,
		NewHash:      string(newHash),
		HistoryLimit: entity.PasswordHistoryLimit,
		ChallengeID:  challengeID,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo update password", "account_id", accountID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
