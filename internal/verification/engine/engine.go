// Package engine implements the verification session state machine: issuing
// codes, checking submissions with attempt-limited lockout, and reissuing
// under a cooldown. It owns no timers and performs no I/O besides its session
// store and rate limiter.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/cardnote/internal/pkg/otp"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
)

// SessionRepository stores at most one session per identifier.
type SessionRepository interface {
	// Create inserts or replaces the session for s.Identifier.
	Create(ctx context.Context, s entity.Session) error
	// Get returns entity.ErrSessionNotFound when nothing is retained.
	Get(ctx context.Context, identifier string) (*entity.Session, error)
	Delete(ctx context.Context, identifier string) error
	// CompareAndUpdate runs fn and applies its Mutation atomically with
	// respect to every other call for the same identifier.
	CompareAndUpdate(ctx context.Context, identifier string, fn entity.Mutator) error
}

// RateLimiter enforces the minimum interval between issuances.
type RateLimiter interface {
	// Reserve records an issuance at now unless one happened within the
	// cooldown, in which case it reports how long to wait.
	Reserve(ctx context.Context, identifier string, now time.Time) (ok bool, retryAfter time.Duration, err error)
	// Release forgets the last reservation.
	Release(ctx context.Context, identifier string) error
}

// CodeGenerator produces random codes.
type CodeGenerator interface {
	Generate(length int, alphabet otp.Alphabet) (string, error)
}

type hasher interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}

type clocker interface {
	Now() time.Time
}

// Config is the verification policy.
type Config struct {
	TTL          time.Duration
	MaxAttempts  int
	LockDuration time.Duration
	Cooldown     time.Duration
	CodeLength   int
	Alphabet     otp.Alphabet

	// ResetAttemptsOnResend zeroes the failure count when a code is reissued.
	// When false the count carries over, unless the previous session had used
	// all its attempts and served its lock.
	ResetAttemptsOnResend bool
	// LockBlocksReissue refuses RequestCode and Resend while a lock is active.
	LockBlocksReissue bool
}

// DefaultConfig returns the stock policy: six digit codes valid for five
// minutes, three attempts, a fifteen minute lock and a one minute cooldown.
func DefaultConfig() Config {
	return Config{
		TTL:                   5 * time.Minute,
		MaxAttempts:           3,
		LockDuration:          15 * time.Minute,
		Cooldown:              time.Minute,
		CodeLength:            6,
		Alphabet:              otp.Numeric,
		ResetAttemptsOnResend: true,
		LockBlocksReissue:     true,
	}
}

func (c Config) validate() error {
	switch {
	case c.TTL <= 0:
		return fmt.Errorf("%w: ttl must be positive", ErrInvalidConfig)
	case c.MaxAttempts < 1:
		return fmt.Errorf("%w: max attempts must be at least 1", ErrInvalidConfig)
	case c.LockDuration <= 0:
		return fmt.Errorf("%w: lock duration must be positive", ErrInvalidConfig)
	case c.Cooldown < 0:
		return fmt.Errorf("%w: cooldown must not be negative", ErrInvalidConfig)
	case c.CodeLength < otp.MinLength || c.CodeLength > otp.MaxLength:
		return fmt.Errorf("%w: code length must be between %d and %d", ErrInvalidConfig, otp.MinLength, otp.MaxLength)
	case len(c.Alphabet) < 2:
		return fmt.Errorf("%w: alphabet must contain at least two symbols", ErrInvalidConfig)
	}
	return nil
}

// Dependency holds the collaborators of an Engine.
type Dependency struct {
	Repository SessionRepository
	Limiter    RateLimiter
	Generator  CodeGenerator
	Hasher     hasher
	Clock      clocker
	Config     Config
}

// Engine runs the verification state machine.
type Engine struct {
	repo    SessionRepository
	limiter RateLimiter
	gen     CodeGenerator
	hash    hasher
	clock   clocker
	cfg     Config
}

// New validates cfg and returns an Engine.
func New(dep Dependency) (*Engine, error) {
	if err := dep.Config.validate(); err != nil {
		return nil, err
	}

	return &Engine{
		repo:    dep.Repository,
		limiter: dep.Limiter,
		gen:     dep.Generator,
		hash:    dep.Hasher,
		clock:   dep.Clock,
		cfg:     dep.Config,
	}, nil
}

// Config returns the policy the engine runs with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Issued is a freshly generated code for the caller to dispatch. Code must
// never reach the client that will later submit it.
type Issued struct {
	Identifier        string
	Purpose           entity.Purpose
	Code              string
	ExpiresAt         time.Time
	ResendAvailableAt time.Time
}

// Verified is the terminal outcome of a successful Verify.
type Verified struct {
	Identifier string
	Purpose    entity.Purpose
	VerifiedAt time.Time
}

// lookup returns nil without error when no session is retained.
func (e *Engine) lookup(ctx context.Context, identifier string) (*entity.Session, error) {
	s, err := e.repo.Get(ctx, identifier)
	if errors.Is(err, entity.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// newSession generates a code and a fresh session around it.
func (e *Engine) newSession(identifier string, purpose entity.Purpose, now time.Time) (string, *entity.Session, error) {
	code, err := e.gen.Generate(e.cfg.CodeLength, e.cfg.Alphabet)
	if err != nil {
		return "", nil, fmt.Errorf("generate code: %w", err)
	}

	digest, err := e.hash.Hash(otp.Normalize(code))
	if err != nil {
		return "", nil, fmt.Errorf("hash code: %w", err)
	}

	return code, &entity.Session{
		Identifier:   identifier,
		Purpose:      purpose,
		CodeHash:     string(digest),
		CreatedAt:    now,
		ExpiresAt:    now.Add(e.cfg.TTL),
		MaxAttempts:  e.cfg.MaxAttempts,
		LastIssuedAt: now,
	}, nil
}

func (e *Engine) reserve(ctx context.Context, identifier string, now time.Time) error {
	ok, retryAfter, err := e.limiter.Reserve(ctx, identifier, now)
	if err != nil {
		return fmt.Errorf("reserve cooldown: %w", err)
	}
	if !ok {
		return &Failure{Reason: ReasonCooldownActive, RetryAfter: retryAfter}
	}
	return nil
}

// release undoes a reservation after a failed issuance; err is returned joined
// with any release failure.
func (e *Engine) release(ctx context.Context, identifier string, err error) error {
	if rerr := e.limiter.Release(ctx, identifier); rerr != nil {
		return errors.Join(err, fmt.Errorf("release cooldown: %w", rerr))
	}
	return err
}

func (e *Engine) issued(code string, s *entity.Session) *Issued {
	return &Issued{
		Identifier:        s.Identifier,
		Purpose:           s.Purpose,
		Code:              code,
		ExpiresAt:         s.ExpiresAt,
		ResendAvailableAt: s.LastIssuedAt.Add(e.cfg.Cooldown),
	}
}

func lockedFailure(s *entity.Session, now time.Time) *Failure {
	until := lo.FromPtr(s.LockedUntil)
	return &Failure{
		Reason:      ReasonLocked,
		LockedUntil: until,
		RetryAfter:  max(until.Sub(now), 0),
	}
}
