package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDriver(t *testing.T) {
	t.Run("noop by default", func(t *testing.T) {
		m, err := NewFromDriver("", FactoryOptions{})
		require.NoError(t, err)
		assert.IsType(t, &Noop{}, m)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewFromDriver("rabbit", FactoryOptions{})
		assert.ErrorIs(t, err, ErrUnknownDriver)
	})

	t.Run("nats requires url", func(t *testing.T) {
		_, err := NewFromDriver(DriverNATS, FactoryOptions{})
		assert.ErrorIs(t, err, ErrNATSURLRequired)
	})

	t.Run("kafka requires brokers", func(t *testing.T) {
		_, err := NewFromDriver(DriverKafka, FactoryOptions{Kafka: KafkaConfig{Brokers: []string{""}}})
		assert.ErrorIs(t, err, ErrKafkaBrokersRequired)
	})
}

func TestNoop_Publish(t *testing.T) {
	n := NewNoop()

	res, err := n.Publish(t.Context(), "verification.verified", Message{Body: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, "verification.verified", res.Topic)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = n.Publish(ctx, "verification.verified", Message{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, n.Close())
}

func TestKafka_PublishGuards(t *testing.T) {
	k, err := NewKafka(KafkaConfig{Brokers: []string{"127.0.0.1:1"}})
	require.NoError(t, err)

	_, err = k.Publish(t.Context(), "", Message{})
	assert.ErrorIs(t, err, ErrDestinationRequired)

	require.NoError(t, k.Close())
	require.NoError(t, k.Close())

	_, err = k.Publish(t.Context(), "topic", Message{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNATSMsg(t *testing.T) {
	m := natsMsg("verification.verified", Message{
		Body:    []byte(`{}`),
		Key:     []byte("ignored"),
		Headers: []Header{StringHeader("cID", "c-1"), StringHeader("", "dropped"), StringHeader("cID", "c-2")},
	})

	assert.Equal(t, "verification.verified", m.Subject)
	assert.Equal(t, []byte(`{}`), m.Data)
	assert.Equal(t, []string{"c-1", "c-2"}, m.Header.Values("cID"))
	assert.Len(t, m.Header, 1)
}

func TestNoop_RequiresDestination(t *testing.T) {
	_, err := NewNoop().Publish(t.Context(), "", Message{})
	assert.ErrorIs(t, err, ErrDestinationRequired)
}
