package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/cardnote/internal/pkg/instrument"
	"github.com/shandysiswandi/cardnote/internal/pkg/messaging"
	"github.com/shandysiswandi/cardnote/internal/shared/event"
	"github.com/shandysiswandi/cardnote/internal/verification/usecase"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishVerified(ctx context.Context, msg usecase.VerifiedEvent) error {
	ctx, span := m.ins.Tracer("verification.outbound.mq").Start(ctx, "PublishVerified")
	defer span.End()

	body, err := json.Marshal(event.VerificationVerifiedMessage{
		Email:      msg.Email,
		Purpose:    msg.Purpose.String(),
		VerifiedAt: msg.VerifiedAt.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.VerificationVerifiedDestination, messaging.Message{
		Body:    body,
		Key:     []byte(msg.Email),
		Headers: []messaging.Header{messaging.StringHeader(keyOfCorrelationID, cID)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
