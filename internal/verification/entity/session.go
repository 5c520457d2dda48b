package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
)

// ErrSessionNotFound is returned by session stores when no live session
// exists for an identifier.
var ErrSessionNotFound = errors.New("verification: session not found")

// Session is the single active verification attempt for one identifier.
// Only a keyed digest of the code is kept.
type Session struct {
	Identifier   string     `json:"identifier"`
	Purpose      Purpose    `json:"purpose"`
	CodeHash     string     `json:"code_hash"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	AttemptCount int        `json:"attempt_count"`
	MaxAttempts  int        `json:"max_attempts"`
	LockedUntil  *time.Time `json:"locked_until,omitempty"`
	LastIssuedAt time.Time  `json:"last_issued_at"`
}

// NormalizeIdentifier lower-cases and trims an email address.
func NormalizeIdentifier(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// IsExpired reports whether now is strictly after ExpiresAt.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsLocked reports whether a lock is set and still in the future.
func (s *Session) IsLocked(now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// AttemptsExhausted reports whether no verification attempts remain.
func (s *Session) AttemptsExhausted() bool {
	return s.AttemptCount >= s.MaxAttempts
}

// AttemptsRemaining is never negative.
func (s *Session) AttemptsRemaining() int {
	return max(s.MaxAttempts-s.AttemptCount, 0)
}

// State derives the session state at now. Expiry wins over lock. A session
// whose attempts are used up stays Locked after the lock elapses, because only
// a reissue clears it.
func (s *Session) State(now time.Time) State {
	switch {
	case s.IsExpired(now):
		return StateExpired
	case s.IsLocked(now), s.AttemptsExhausted():
		return StateLocked
	default:
		return StateActive
	}
}

// RetainUntil is how long a store keeps the session so late calls still see
// Expired or Locked instead of NotFound.
func (s *Session) RetainUntil(grace time.Duration) time.Time {
	return lo.Latest(s.ExpiresAt, lo.FromPtr(s.LockedUntil)).Add(grace)
}

// Clone returns a deep copy safe to hand across goroutines.
func (s *Session) Clone() *Session {
	c := *s
	if s.LockedUntil != nil {
		c.LockedUntil = lo.ToPtr(*s.LockedUntil)
	}
	return &c
}
