package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/gobackend-labs/authcore/internal/notification/usecase"
	"github.com/gobackend-labs/authcore/internal/pkg/config"
	"github.com/gobackend-labs/authcore/internal/pkg/goroutine"
	"github.com/gobackend-labs/authcore/internal/pkg/instrument"
	"github.com/gobackend-labs/authcore/internal/pkg/messaging"
	"github.com/gobackend-labs/authcore/internal/pkg/uid"
	"github.com/gobackend-labs/authcore/internal/shared/event"
)

type uc interface {
	ConsumeAccountRegistration(ctx context.Context, in usecase.ConsumeAccountRegistrationInput) error
	ConsumePasswordResetRequest(ctx context.Context, in usecase.ConsumePasswordResetRequestInput) error
	ConsumeSecurityAlert(ctx context.Context, in usecase.ConsumeSecurityAlertInput) error
}

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHanlder := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.AccountRegistrationConsumerNotification,
			topic:   event.AccountRegistrationDestination,
			handler: mqHanlder.AccountRegistrationNotification,
		},
		{
			name:    event.PasswordResetRequestConsumerNotification,
			topic:   event.PasswordResetRequestDestination,
			handler: mqHanlder.PasswordResetRequestNotification,
		},
		{
			name:    event.SecurityAlertConsumerNotification,
			topic:   event.SecurityAlertDestination,
			handler: mqHanlder.SecurityAlertNotification,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithChannel(consumer.name),
					messaging.WithQueueGroup(consumer.name),
					messaging.WithGroup(consumer.name),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(10),
					messaging.WithMaxInFlight(10),
				)
			})
		}
	}
}
