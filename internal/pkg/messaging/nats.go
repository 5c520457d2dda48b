package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// ErrNATSURLRequired is returned when the NATS server URL is missing.
var ErrNATSURLRequired = errors.New("messaging: nats url is required")

// NATSConfig configures the NATS publisher.
type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS publishes on core NATS subjects. A publish returns once the server
// has acknowledged the flush, so a lost connection surfaces as an error.
type NATS struct {
	conn *nats.Conn
}

// NewNATS connects to the configured NATS server.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect %s: %w", cfg.URL, err)
	}
	return &NATS{conn: conn}, nil
}

// Close drains in-flight publishes before closing the connection.
func (n *NATS) Close() error {
	if n.conn.IsClosed() {
		return nil
	}
	err := n.conn.Drain()
	n.conn.Close()
	return err
}

func (n *NATS) Publish(ctx context.Context, destination string, msg Message) (PublishResult, error) {
	if err := precheck(ctx, destination); err != nil {
		return PublishResult{}, err
	}
	if n.conn.IsClosed() || n.conn.IsDraining() {
		return PublishResult{}, ErrClosed
	}

	if err := n.conn.PublishMsg(natsMsg(destination, msg)); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats publish %s: %w", destination, err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats flush %s: %w", destination, err)
	}

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

func natsMsg(subject string, msg Message) *nats.Msg {
	out := nats.NewMsg(subject)
	out.Data = msg.Body
	eachHeader(msg.Headers, func(h Header) { out.Header.Add(h.Key, string(h.Value)) })
	return out
}
