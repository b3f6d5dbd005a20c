package usecase

import (
	"context"
	"log/slog"

	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

type LogoutInput struct {
	// DeviceToken optionally revokes the trusted device presented alongside
	// this session. Other trusted devices of the account are untouched.
	DeviceToken string
}

// Logout invalidates the current session token and, when presented, the
// trusted device used for this login.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if clm.ID != "" && clm.ExpiresAt != nil {
		remaining := clm.ExpiresAt.Time.Sub(s.clock.Now())
		if err := s.denylist.DenyToken(ctx, clm.ID, remaining); err != nil {
			slog.ErrorContext(ctx, "failed to deny session token", "account_id", clm.AccountID, "error", err)
			return goerror.NewServer(err)
		}
	}

	if in.DeviceToken == "" {
		return nil
	}

	tokenHash, err := s.hmac.Hash(in.DeviceToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash device token", "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.DeleteTrustedDevice(ctx, clm.AccountID, string(tokenHash)); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete trusted device", "account_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
