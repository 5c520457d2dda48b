package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/shandysiswandi/cardnote/internal/pkg/otp"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
)

// Verify checks a submitted code. Outcomes, in order of precedence:
// ErrNotFound without a session, ErrExpired past ExpiresAt (nothing changes),
// ErrLocked while locked or out of attempts, Verified on a match (the session
// is removed), otherwise the failure count grows and the result is
// ErrInvalidCode, or ErrLocked once the count reaches the maximum.
func (e *Engine) Verify(ctx context.Context, identifier, code string) (*Verified, error) {
	identifier = entity.NormalizeIdentifier(identifier)
	submitted := otp.Normalize(code)

	var verified *Verified
	err := e.repo.CompareAndUpdate(ctx, identifier, func(s *entity.Session) (entity.Mutation, error) {
		verified = nil
		now := e.clock.Now()

		if s.IsExpired(now) {
			return entity.MutationKeep, &Failure{Reason: ReasonExpired}
		}
		if s.IsLocked(now) || s.AttemptsExhausted() {
			return entity.MutationKeep, lockedFailure(s, now)
		}

		if e.hash.Verify(s.CodeHash, submitted) {
			verified = &Verified{Identifier: s.Identifier, Purpose: s.Purpose, VerifiedAt: now}
			return entity.MutationDelete, nil
		}

		s.AttemptCount++
		if s.AttemptsExhausted() {
			until := now.Add(e.cfg.LockDuration)
			s.LockedUntil = &until
			return entity.MutationSave, lockedFailure(s, now)
		}

		return entity.MutationSave, &Failure{
			Reason:            ReasonInvalidCode,
			AttemptsRemaining: s.AttemptsRemaining(),
		}
	})
	if errors.Is(err, entity.ErrSessionNotFound) {
		return nil, &Failure{Reason: ReasonNotFound}
	}

	var failure *Failure
	if errors.As(err, &failure) {
		return nil, failure
	}
	if err != nil {
		return nil, fmt.Errorf("compare and update session: %w", err)
	}

	return verified, nil
}
