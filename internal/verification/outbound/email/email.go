package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/shandysiswandi/cardnote/internal/pkg/clock"
	"github.com/shandysiswandi/cardnote/internal/pkg/instrument"
	"github.com/shandysiswandi/cardnote/internal/pkg/mail"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type content struct {
	subject string
	body    *template.Template
}

var templates = map[entity.Purpose]content{
	entity.PurposeSignup: {
		subject: "Confirm your Cardnote account",
		body: template.Must(template.New("signup").Parse(`Hi,

Your Cardnote verification code is {{.Code}}

It expires in {{.ExpiresIn}} (at {{.ExpiresAt}}).
If you did not sign up, you can ignore this email.
`)),
	},
	entity.PurposePasswordReset: {
		subject: "Reset your Cardnote password",
		body: template.Must(template.New("password_reset").Parse(`Hi,

Use {{.Code}} to reset your Cardnote password.

It expires in {{.ExpiresIn}} (at {{.ExpiresAt}}).
If you did not ask for a reset, your password is unchanged.
`)),
	},
}

// Mail delivers verification codes over a mail.Mail provider.
type Mail struct {
	client mail.Mail
	from   string
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

func New(client mail.Mail, from string, clk clock.Clocker, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, from: from, clock: clk, ins: ins}
}

// Send returns nil only when the provider accepted the message.
func (m *Mail) Send(ctx context.Context, identifier, code string, purpose entity.Purpose, expiresAt time.Time) error {
	ctx, span := m.ins.Tracer("verification.outbound.email").Start(ctx, "Send")
	defer span.End()
	span.SetAttributes(attribute.String("purpose", purpose.String()))

	msg, err := m.render(identifier, code, purpose, expiresAt)
	if err == nil {
		err = m.client.Send(ctx, msg)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Mail) render(identifier, code string, purpose entity.Purpose, expiresAt time.Time) (mail.Message, error) {
	tpl, ok := templates[purpose]
	if !ok {
		return mail.Message{}, fmt.Errorf("no email template for purpose %q", purpose)
	}

	var buf bytes.Buffer
	if err := tpl.body.Execute(&buf, map[string]any{
		"Code":      code,
		"ExpiresIn": expiresAt.Sub(m.clock.Now()).Round(time.Second),
		"ExpiresAt": expiresAt.UTC().Format("15:04:05 MST"),
	}); err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		From:    m.from,
		To:      []string{identifier},
		Subject: tpl.subject,
		Body:    buf.String(),
		Headers: map[string]string{
			"Auto-Submitted":     "auto-generated",
			"X-Cardnote-Purpose": purpose.String(),
		},
	}, nil
}
