package mail

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// ErrSMTPHostPortRequired is returned when Host or Port is missing.
var ErrSMTPHostPortRequired = errors.New("mail: smtp host and port are required")

const defaultSMTPTimeout = 10 * time.Second

// SMTPConfig configures the SMTP implementation.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the default sender when Message.From is empty.
	From string
	// Timeout bounds one whole delivery, dial included. Zero means ten seconds.
	Timeout time.Duration
}

// SMTP delivers each message over its own connection, upgrading to TLS when
// the server offers STARTTLS.
type SMTP struct {
	cfg  SMTPConfig
	addr string
	auth smtp.Auth
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTP{
		cfg:  cfg,
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth: auth,
	}, nil
}

// Send honours ctx for the dial and for the whole SMTP exchange.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg.From = lo.CoalesceOrEmpty(msg.From, s.cfg.From)
	raw, err := buildMessage(msg, s.cfg.Host, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("mail: dial %s: %w", s.addr, err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("mail: handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("mail: starttls: %w", err)
		}
	}
	if ok, _ := c.Extension("AUTH"); ok && s.auth != nil {
		if err := c.Auth(s.auth); err != nil {
			return fmt.Errorf("mail: auth: %w", err)
		}
	}

	if err := c.Mail(address(msg.From)); err != nil {
		return fmt.Errorf("mail: sender rejected: %w", err)
	}
	for _, rcpt := range msg.To {
		if err := c.Rcpt(address(rcpt)); err != nil {
			return fmt.Errorf("mail: recipient rejected: %w", err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("mail: data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("mail: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail: message rejected: %w", err)
	}

	return c.Quit()
}

// Close is a no-op; connections are not pooled.
func (s *SMTP) Close() error {
	return nil
}

// address strips a display name: "Cardnote <no-reply@x>" becomes "no-reply@x".
func address(v string) string {
	if i, j := strings.LastIndexByte(v, '<'), strings.LastIndexByte(v, '>'); i >= 0 && j > i {
		return v[i+1 : j]
	}
	return strings.TrimSpace(v)
}

// buildMessage renders the RFC 5322 message with CRLF line endings.
func buildMessage(msg Message, host string, now time.Time) ([]byte, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	if msg.From == "" {
		return nil, ErrNoSender
	}

	headers := [][2]string{
		{"From", msg.From},
		{"To", strings.Join(msg.To, ", ")},
		{"Subject", msg.Subject},
		{"Date", now.Format(time.RFC1123Z)},
		{"Message-ID", messageID(host)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=UTF-8"},
		{"Content-Transfer-Encoding", "8bit"},
	}
	keys := lo.Keys(msg.Headers)
	slices.Sort(keys)
	for _, k := range keys {
		headers = append(headers, [2]string{k, msg.Headers[k]})
	}

	var sb strings.Builder
	for _, h := range headers {
		if strings.ContainsAny(h[0]+h[1], "\r\n") {
			return nil, fmt.Errorf("%w: %s", ErrHeaderInjection, h[0])
		}
		sb.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n"))

	return []byte(sb.String()), nil
}

func messageID(host string) string {
	var b [12]byte
	//nolint:errcheck // crypto/rand.Read never fails on supported platforms
	rand.Read(b[:])
	return "<" + hex.EncodeToString(b[:]) + "@" + host + ">"
}
