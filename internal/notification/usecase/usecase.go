package usecase

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/trace"

	"github.com/gobackend-labs/authcore/internal/notification/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/clock"
	"github.com/gobackend-labs/authcore/internal/pkg/config"
	"github.com/gobackend-labs/authcore/internal/pkg/idempotency"
	"github.com/gobackend-labs/authcore/internal/pkg/instrument"
	"github.com/gobackend-labs/authcore/internal/pkg/mail"
	"github.com/gobackend-labs/authcore/internal/pkg/validator"
)

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	cfg       config.Config
	clock     clock.Clocker
	validator validator.Validator
	repoMail  repoMail
	idem      idempotency.Idempotency
	ins       instrument.Instrumentation
}

type Dependency struct {
	Config      config.Config
	Clock       clock.Clocker
	Validator   validator.Validator
	RepoMail    repoMail
	Idempotency idempotency.Idempotency
	Instrument  instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		cfg:       dep.Config,
		clock:     dep.Clock,
		validator: dep.Validator,
		repoMail:  dep.RepoMail,
		idem:      dep.Idempotency,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) renderTemplate(name, tpl string, data map[string]any) (string, error) {
	t, err := template.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Usecase) baseEmailTemplateData() map[string]any {
	return map[string]any{
		"support_email": s.cfg.GetString("modules.notification.support_email"),
		"company_name":  s.cfg.GetString("modules.notification.company_name"),
		"year":          s.clock.Now().Format("2006"),
	}
}

type emailInput struct {
	Email        string
	TriggerKey   entity.TriggerKey
	TemplateData map[string]any
	// DedupKey makes redelivered messages send at most one email.
	DedupKey string
}

// sendEmail renders the built-in template and delivers it, retrying transient
// provider failures. A duplicate dedup key is dropped without error.
func (s *Usecase) sendEmail(ctx context.Context, in emailInput) error {
	tpl, ok := entity.TemplateFor(in.TriggerKey)
	if !ok {
		slog.WarnContext(ctx, "email template not found", "trigger_key", in.TriggerKey.String())
		return nil
	}

	body, err := s.renderTemplate("body", tpl.Body, in.TemplateData)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email body", "trigger_key", in.TriggerKey.String(), "error", err)
		return nil
	}

	err = s.idem.Exec(ctx, "notification:"+in.DedupKey, func(ctx context.Context) error {
		b := retry.NewFibonacci(500 * time.Millisecond)
		b = retry.WithMaxRetries(3, b)
		b = retry.WithCappedDuration(5*time.Second, b)

		return retry.Do(ctx, b, func(ctx context.Context) error {
			if sErr := s.repoMail.Send(ctx, mail.Message{
				To:       []string{in.Email},
				Subject:  tpl.Subject,
				HTMLBody: body,
			}); sErr != nil {
				return retry.RetryableError(sErr)
			}
			return nil
		})
	}, idempotency.WithStateTTL(24*time.Hour))

	if errors.Is(err, idempotency.ErrAlreadyCompleted) || errors.Is(err, idempotency.ErrAlreadyInProgress) {
		slog.InfoContext(ctx, "skip duplicate email delivery", "trigger_key", in.TriggerKey.String(), "dedup_key", in.DedupKey)
		return nil
	}
	if errors.Is(err, idempotency.ErrAlreadyFailed) {
		slog.WarnContext(ctx, "email delivery previously failed, not retrying", "trigger_key", in.TriggerKey.String(), "dedup_key", in.DedupKey)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to send notification email", "trigger_key", in.TriggerKey.String(), "error", err)
		return err
	}

	return nil
}
