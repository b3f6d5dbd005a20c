package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gobackend-labs/authcore/internal/notification/usecase"
	"github.com/gobackend-labs/authcore/internal/pkg/instrument"
	"github.com/gobackend-labs/authcore/internal/pkg/messaging"
	"github.com/gobackend-labs/authcore/internal/pkg/uid"
	"github.com/gobackend-labs/authcore/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) AccountRegistrationNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "AccountRegistrationNotification")
	defer span.End()

	// Bodies carry live challenge tokens, so they never reach the logs.
	var payload event.AccountRegistrationMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of account registration notification", "msg_id", msg.ID(), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: account registration notification", "account_id", payload.AccountID)

	if err := h.uc.ConsumeAccountRegistration(ctx, usecase.ConsumeAccountRegistrationInput{
		AccountID: payload.AccountID,
		Email:     payload.Email,
		Token:     payload.ChallengeToken,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume account registration", "account_id", payload.AccountID, "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) PasswordResetRequestNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "PasswordResetRequestNotification")
	defer span.End()

	var payload event.PasswordResetRequestMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of password reset request notification", "msg_id", msg.ID(), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: password reset request notification", "account_id", payload.AccountID)

	if err := h.uc.ConsumePasswordResetRequest(ctx, usecase.ConsumePasswordResetRequestInput{
		AccountID: payload.AccountID,
		Email:     payload.Email,
		Token:     payload.ChallengeToken,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume password reset request", "account_id", payload.AccountID, "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) SecurityAlertNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "SecurityAlertNotification")
	defer span.End()

	var payload event.SecurityAlertMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of security alert notification", "msg_id", msg.ID(), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: security alert notification", "account_id", payload.AccountID, "kind", payload.Kind)

	if err := h.uc.ConsumeSecurityAlert(ctx, usecase.ConsumeSecurityAlertInput{
		AccountID: payload.AccountID,
		Email:     payload.Email,
		Kind:      payload.Kind,
		At:        payload.At,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume security alert", "account_id", payload.AccountID, "error", err)
		return err
	}

	return nil
}
