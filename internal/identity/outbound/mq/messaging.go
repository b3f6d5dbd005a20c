package mq

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/codes"

	"github.com/gobackend-labs/authcore/internal/identity/usecase"
	"github.com/gobackend-labs/authcore/internal/pkg/instrument"
	"github.com/gobackend-labs/authcore/internal/pkg/messaging"
	"github.com/gobackend-labs/authcore/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) publish(ctx context.Context, spanName, destination string, payload any) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, spanName)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, destination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishAccountRegistration(ctx context.Context, msg usecase.AccountRegistrationEvent) error {
	return m.publish(ctx, "PublishAccountRegistration", event.AccountRegistrationDestination,
		event.AccountRegistrationMessage{
			AccountID:      msg.AccountID,
			Email:          msg.Email,
			ChallengeToken: msg.ChallengeToken,
		})
}

func (m *Messaging) PublishPasswordResetRequest(ctx context.Context, msg usecase.PasswordResetRequestEvent) error {
	return m.publish(ctx, "PublishPasswordResetRequest", event.PasswordResetRequestDestination,
		event.PasswordResetRequestMessage{
			AccountID:      msg.AccountID,
			Email:          msg.Email,
			ChallengeToken: msg.ChallengeToken,
		})
}

func (m *Messaging) PublishSecurityAlert(ctx context.Context, msg usecase.SecurityAlertEvent) error {
	return m.publish(ctx, "PublishSecurityAlert", event.SecurityAlertDestination,
		event.SecurityAlertMessage{
			AccountID: msg.AccountID,
			Email:     msg.Email,
			Kind:      msg.Kind,
			At:        msg.At,
		})
}
