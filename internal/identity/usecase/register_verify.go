package usecase

import (
	"context"
	"log/slog"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

type RegisterVerifyInput struct {
	ChallengeToken string `validate:"required"`
}

// RegisterVerify activates an unverified account using the emailed challenge
// token. Verifying an already active account just consumes the challenge.
func (s *Usecase) RegisterVerify(ctx context.Context, in RegisterVerifyInput) error {
	ctx, span := s.startSpan(ctx, "RegisterVerify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	cTokenHash, err := s.hmac.Hash(in.ChallengeToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash token challange", "error", err)
		return goerror.NewServer(err)
	}

	ca, err := s.repoDB.GetChallengeAccountByTokenPurpose(ctx, string(cTokenHash), entity.ChallengePurposeRegisterVerify)
	if err != nil {
		slog.WarnContext(ctx, "registration challenge not found or expired", "error", err)
		return goerror.NewBusiness("invalid verification token", goerror.CodeUnauthorized)
	}

	switch ca.AccountStatus.Ensure() {
	case entity.AccountStatusActive:
		if err := s.repoDB.DeleteChallenge(ctx, ca.ChallengeID); err != nil {
			slog.ErrorContext(ctx, "failed to repo delete challenge by id", "challenge_id", ca.ChallengeID, "error", err)
			return goerror.NewServer(err)
		}

		return nil

	case entity.AccountStatusBanned:
		return goerror.NewBusiness("account is banned", goerror.CodeForbidden)

	case entity.AccountStatusUnverified:
		if err := s.repoDB.VerifyRegistration(ctx, entity.VerifyRegistration{
			ChallengeID: ca.ChallengeID,
			AccountID:   ca.AccountID,
			OldStatus:   entity.AccountStatusUnverified,
			NewStatus:   entity.AccountStatusActive,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to repo verify registration", "account_id", ca.AccountID, "challenge_id", ca.ChallengeID, "error", err)
			return goerror.NewServer(err)
		}

		return nil

	default:
		slog.WarnContext(ctx, "unknown account status", "account_id", ca.AccountID, "status", ca.AccountStatus.String())
		return goerror.NewBusiness("account status is unrecognized", goerror.CodeForbidden)
	}
}
