package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/gobackend-labs/authcore/internal/notification/entity"
	"github.com/gobackend-labs/authcore/internal/shared/event"
)

type ConsumeSecurityAlertInput struct {
	AccountID int64  `validate:"required,gt=0"`
	Email     string `validate:"required,email"`
	Kind      string `validate:"required"`
	At        time.Time
}

var alertHeadlines = map[string]string{
	event.SecurityAlertLockout:           "Your account was temporarily locked after repeated failed sign-in attempts.",
	event.SecurityAlertPasswordChanged:   "The password for your account was changed.",
	event.SecurityAlertTwoFactorEnabled:  "Two-factor authentication was enabled on your account.",
	event.SecurityAlertTwoFactorDisabled: "Two-factor authentication was disabled on your account.",
	event.SecurityAlertRecoveryCodeUsed:  "A recovery code was used to sign in to your account.",
}

// ConsumeSecurityAlert emails the account holder about a sensitive change.
func (s *Usecase) ConsumeSecurityAlert(ctx context.Context, in ConsumeSecurityAlertInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeSecurityAlert")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	occurredAt := in.At
	if occurredAt.IsZero() {
		occurredAt = s.clock.Now()
	}

	data := s.baseEmailTemplateData()
	data["headline"] = lo.ValueOr(alertHeadlines, in.Kind, "Unusual activity was detected on your account.")
	data["occurred_at"] = occurredAt.UTC().Format(time.RFC1123)

	return s.sendEmail(ctx, emailInput{
		Email:        in.Email,
		TriggerKey:   entity.TriggerKeySecurityAlert,
		TemplateData: data,
		DedupKey: "security_alert:" + strconv.FormatInt(in.AccountID, 10) +
			":" + in.Kind + ":" + strconv.FormatInt(occurredAt.UnixNano(), 10),
	})
}
