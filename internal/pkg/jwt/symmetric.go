package jwt

import (
	"errors"
	"fmt"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Symmetric signs tickets with a shared HS512 secret.
type Symmetric struct {
	cfg    Config
	parser *libJWT.Parser
}

// NewHS512 validates cfg and returns an HS512 ticket signer.
func NewHS512(cfg Config) (*Symmetric, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Symmetric{
		cfg: cfg,
		parser: libJWT.NewParser(
			libJWT.WithIssuer(cfg.Issuer),
			libJWT.WithAudience(cfg.Audiences...),
			libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
			libJWT.WithIssuedAt(),
			libJWT.WithExpirationRequired(),
			libJWT.WithTimeFunc(cfg.Clock.Now),
		),
	}, nil
}

func (s *Symmetric) claims(email, purpose string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.cfg.UUID.Generate(),
			Subject:   email,
			Issuer:    s.cfg.Issuer,
			Audience:  s.cfg.Audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.cfg.TTL)),
		},
		Email:   email,
		Purpose: purpose,
	}
}

// Generate returns a ticket for email, valid for the configured TTL.
func (s *Symmetric) Generate(email, purpose string) (string, error) {
	tok := libJWT.NewWithClaims(libJWT.SigningMethodHS512, s.claims(email, purpose, s.cfg.Clock.Now()))
	return tok.SignedString(s.cfg.Secret)
}

func (s *Symmetric) key(t *libJWT.Token) (any, error) {
	if t.Method != libJWT.SigningMethodHS512 {
		return nil, ErrInvalidSigningMethod
	}
	return s.cfg.Secret, nil
}

// Verify checks signature, issuer, audience and expiry. Expiry is reported
// as ErrTokenExpired; every other failure wraps ErrInvalidToken.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	token, err := s.parser.ParseWithClaims(tokenStr, &claims, s.key)
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case !token.Valid || claims.Email == "":
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
