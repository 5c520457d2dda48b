package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// minSecretBytes is the HS512 block size.
const minSecretBytes = 64

var (
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")
	ErrSigningKeyTooShort   = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")
	ErrInvalidConfig        = errors.New("ticket issuer, audience and ttl are required")
	ErrTokenExpired         = errors.New("JWT token has expired")
	ErrInvalidToken         = errors.New("invalid token")
)

// JWT issues and verifies verification tickets.
type JWT interface {
	Generate(email, purpose string) (string, error)
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	// UUID names each ticket (jti) so a redeemer can reject replays.
	UUID generator
}

func (c Config) validate() error {
	if len(c.Secret) < minSecretBytes {
		return ErrSigningKeyTooShort
	}
	if c.Issuer == "" || len(c.Audiences) == 0 || c.TTL <= 0 || c.Clock == nil || c.UUID == nil {
		return ErrInvalidConfig
	}
	return nil
}

// Claims carry the verified address and the purpose it was verified for.
type Claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type ticketKey struct{}

// GetTicket returns the ticket claims stored in the context, if any.
func GetTicket(ctx context.Context) *Claims {
	if clm, ok := ctx.Value(ticketKey{}).(Claims); ok {
		return &clm
	}
	return nil
}

// SetTicket stores ticket claims in the context.
func SetTicket(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, ticketKey{}, clm)
}
