package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/url"

	"github.com/gobackend-labs/authcore/internal/notification/entity"
)

type ConsumePasswordResetRequestInput struct {
	AccountID int64  `validate:"required,gt=0"`
	Email     string `validate:"required,email"`
	Token     string `validate:"required"`
}

// ConsumePasswordResetRequest emails the reset link. The dedup key is derived
// from the challenge token so every new request sends a fresh email while
// redeliveries of the same message do not.
func (s *Usecase) ConsumePasswordResetRequest(ctx context.Context, in ConsumePasswordResetRequestInput) error {
	ctx, span := s.startSpan(ctx, "ConsumePasswordResetRequest")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	sum := sha256.Sum256([]byte(in.Token))

	data := s.baseEmailTemplateData()
	data["reset_url"] = s.cfg.GetString("app.web") + "/reset-password?token=" + url.QueryEscape(in.Token)

	return s.sendEmail(ctx, emailInput{
		Email:        in.Email,
		TriggerKey:   entity.TriggerKeyPasswordReset,
		TemplateData: data,
		DedupKey:     "password_reset:" + hex.EncodeToString(sum[:8]),
	})
}
