package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/segmentio/kafka-go"
)

// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	Brokers []string
	// Transport overrides the default network transport (TLS, SASL, timeouts).
	Transport kafka.RoundTripper
	// RequiredAcks defaults to kafka.RequireOne.
	RequiredAcks kafka.RequiredAcks
}

// Kafka publishes through one kafka-go writer per topic. Messages are hashed
// by key, so every event for one address lands on the same partition.
type Kafka struct {
	cfg KafkaConfig

	mu      sync.Mutex
	writers map[string]*kafka.Writer // nil once closed
}

// NewKafka returns a publisher. No connection is made until the first publish.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	cfg.Brokers = lo.Compact(cfg.Brokers)
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}
	if cfg.RequiredAcks == kafka.RequireNone {
		cfg.RequiredAcks = kafka.RequireOne
	}

	return &Kafka{cfg: cfg, writers: map[string]*kafka.Writer{}}, nil
}

// Close flushes and closes every writer. Calling it twice is safe.
func (k *Kafka) Close() error {
	k.mu.Lock()
	writers := lo.Values(k.writers)
	k.writers = nil
	k.mu.Unlock()

	return errors.Join(lo.Map(writers, func(w *kafka.Writer, _ int) error { return w.Close() })...)
}

func (k *Kafka) Publish(ctx context.Context, destination string, msg Message) (PublishResult, error) {
	if err := precheck(ctx, destination); err != nil {
		return PublishResult{}, err
	}

	w, err := k.writer(destination)
	if err != nil {
		return PublishResult{}, err
	}

	km := kafka.Message{Key: msg.Key, Value: msg.Body, Time: time.Now()}
	eachHeader(msg.Headers, func(h Header) {
		km.Headers = append(km.Headers, kafka.Header{Key: h.Key, Value: h.Value})
	})

	if err := w.WriteMessages(ctx, km); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: kafka publish %s: %w", destination, err)
	}

	return PublishResult{Topic: destination, Timestamp: km.Time}, nil
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writers == nil {
		return nil, ErrClosed
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(k.cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           k.cfg.RequiredAcks,
		Transport:              k.cfg.Transport,
		AllowAutoTopicCreation: true,
	}
	k.writers[topic] = w
	return w, nil
}
