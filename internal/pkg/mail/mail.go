package mail

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNoRecipients is returned when To is empty.
	ErrNoRecipients = errors.New("mail: no recipients provided")
	// ErrNoSender is returned when neither Message.From nor the configured default is set.
	ErrNoSender = errors.New("mail: no sender provided")
	// ErrHeaderInjection is returned when an address, subject or header carries a line break.
	ErrHeaderInjection = errors.New("mail: line break in header value")
)

// Message is a plain text email.
type Message struct {
	// From falls back to the sender configured on the provider.
	From    string
	To      []string
	Subject string
	Body    string
	// Headers are extra header fields such as Auto-Submitted.
	Headers map[string]string
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	// Send returns nil only when the provider accepted the message.
	Send(ctx context.Context, msg Message) error
}
