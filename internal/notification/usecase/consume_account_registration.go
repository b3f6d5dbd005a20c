package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/gobackend-labs/authcore/internal/notification/entity"
)

type ConsumeAccountRegistrationInput struct {
	AccountID int64  `validate:"required,gt=0"`
	Email     string `validate:"required,email"`
	Token     string `validate:"required"`
}

// ConsumeAccountRegistration emails the verification link for a fresh
// registration. A malformed message is dropped, not requeued.
func (s *Usecase) ConsumeAccountRegistration(ctx context.Context, in ConsumeAccountRegistrationInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeAccountRegistration")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["verify_url"] = s.cfg.GetString("app.web") + "/verify-email?token=" + url.QueryEscape(in.Token)

	return s.sendEmail(ctx, emailInput{
		Email:        in.Email,
		TriggerKey:   entity.TriggerKeyEmailVerify,
		TemplateData: data,
		DedupKey:     "account_registration:" + strconv.FormatInt(in.AccountID, 10),
	})
}
