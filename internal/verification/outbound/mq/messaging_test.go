package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/cardnote/internal/pkg/instrument"
	"github.com/shandysiswandi/cardnote/internal/pkg/messaging"
	"github.com/shandysiswandi/cardnote/internal/shared/event"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
	"github.com/shandysiswandi/cardnote/internal/verification/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	destination string
	msg         messaging.Message
}

type recorder struct {
	out []published
	err error
}

func (r *recorder) Publish(_ context.Context, destination string, msg messaging.Message) (messaging.PublishResult, error) {
	if r.err != nil {
		return messaging.PublishResult{}, r.err
	}
	r.out = append(r.out, published{destination: destination, msg: msg})
	return messaging.PublishResult{Topic: destination}, nil
}

func (*recorder) Close() error { return nil }

func TestMessaging_PublishVerified(t *testing.T) {
	rec := &recorder{}
	m := NewMessaging(rec, instrument.NewNoop())
	ctx := instrument.SetCorrelationID(t.Context(), "cid-1")
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	err := m.PublishVerified(ctx, usecase.VerifiedEvent{
		Email:      "a@b.com",
		Purpose:    entity.PurposeSignup,
		VerifiedAt: at,
	})
	require.NoError(t, err)
	require.Len(t, rec.out, 1)

	got := rec.out[0]
	assert.Equal(t, event.VerificationVerifiedDestination, got.destination)
	assert.Equal(t, []byte("a@b.com"), got.msg.Key)
	assert.JSONEq(t, `{"email":"a@b.com","purpose":"signup","verified_at":1772355600}`, string(got.msg.Body))
	assert.Equal(t, []messaging.Header{{Key: "cID", Value: []byte("cid-1")}}, got.msg.Headers)
}

func TestMessaging_PublishVerifiedError(t *testing.T) {
	errDown := errors.New("broker down")
	m := NewMessaging(&recorder{err: errDown}, instrument.NewNoop())

	err := m.PublishVerified(t.Context(), usecase.VerifiedEvent{Email: "a@b.com", Purpose: entity.PurposeSignup})
	assert.ErrorIs(t, err, errDown)
}
