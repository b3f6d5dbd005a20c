package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

type AccountDeleteInput struct {
	Password string `validate:"required"`
}

// AccountDelete closes the authenticated account after re-verifying the
// password. Credentials, second factor, recovery codes, trusted devices and
// pending challenges are purged together, and open sessions are revoked.
func (s *Usecase) AccountDelete(ctx context.Context, in AccountDeleteInput) error {
	ctx, span := s.startSpan(ctx, "AccountDelete")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
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

	if !s.bcrypt.Verify(acct.Password, in.Password) {
		slog.WarnContext(ctx, "account password not match", "account_id", acct.ID)
		return goerror.NewBusiness("invalid password", goerror.CodeUnauthorized)
	}

	if err := s.repoDB.MarkAccountDeleted(ctx, acct.ID); err != nil {
		slog.ErrorContext(ctx, "failed to repo mark account deleted", "account_id", acct.ID, "error", err)
		return goerror.NewServer(err)
	}

	s.revokeSessionsIssuedBefore(ctx, acct.ID)

	return nil
}
