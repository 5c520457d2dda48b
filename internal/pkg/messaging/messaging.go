package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrDestinationRequired is returned for an empty topic or subject.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrClosed is returned when publishing after Close.
	ErrClosed = errors.New("messaging: publisher is closed")
)

// Messaging publishes events and releases its broker connection on Close.
type Messaging interface {
	io.Closer
	Publish(ctx context.Context, destination string, msg Message) (PublishResult, error)
}

// Message is a broker-agnostic event.
type Message struct {
	Body []byte
	// Key partitions Kafka topics; events for one address share a key so they
	// stay ordered. NATS ignores it.
	Key     []byte
	Headers []Header
}

// Header is a message header. Keys may repeat.
type Header struct {
	Key   string
	Value []byte
}

// StringHeader builds a Header from a string value.
func StringHeader(key, value string) Header {
	return Header{Key: key, Value: []byte(value)}
}

// PublishResult reports where and when a message was accepted.
type PublishResult struct {
	Topic     string
	Timestamp time.Time
}

// precheck rejects publishes that can never succeed.
func precheck(ctx context.Context, destination string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrDestinationRequired
	}
	return nil
}

// eachHeader calls fn for every header with a non-empty key.
func eachHeader(hs []Header, fn func(Header)) {
	for _, h := range hs {
		if h.Key != "" {
			fn(h)
		}
	}
}
