package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shandysiswandi/cardnote/internal/verification/entity"
)

// RequestCode issues a new code for identifier, replacing any prior session
// with a fresh one (no attempts used, no lock).
//
// Besides ErrCooldownActive within the cooldown of the previous issuance, it
// fails with ErrLocked while a lock is active and Config.LockBlocksReissue is
// set, so a caller cannot trade a lockout for a new code. Neither failure
// mutates anything.
func (e *Engine) RequestCode(ctx context.Context, identifier string, purpose entity.Purpose) (*Issued, error) {
	identifier = entity.NormalizeIdentifier(identifier)
	now := e.clock.Now()

	current, err := e.lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if current != nil && e.cfg.LockBlocksReissue && current.IsLocked(now) {
		return nil, lockedFailure(current, now)
	}

	return e.issue(ctx, identifier, now, reissue{purpose: purpose, fallback: purpose})
}

// reissue describes how a replacement session is derived from the stored one.
type reissue struct {
	// purpose of the new session; empty keeps the stored session's purpose.
	purpose entity.Purpose
	// fallback is the purpose used when nothing is stored.
	fallback entity.Purpose
	// carry copies state from the stored session into the new one.
	carry func(prev, next *entity.Session)
}

// issue reserves the cooldown and swaps in a fresh session. The swap runs
// inside CompareAndUpdate and re-checks the lock on the stored state, so a
// Verify that locks the identifier after the caller's snapshot still wins.
// Create is used only when nothing is stored.
func (e *Engine) issue(ctx context.Context, identifier string, now time.Time, r reissue) (*Issued, error) {
	if err := e.reserve(ctx, identifier, now); err != nil {
		return nil, err
	}

	var code string
	var fresh *entity.Session
	err := e.repo.CompareAndUpdate(ctx, identifier, func(s *entity.Session) (entity.Mutation, error) {
		if e.cfg.LockBlocksReissue && s.IsLocked(now) {
			return entity.MutationKeep, lockedFailure(s, now)
		}

		p := r.purpose
		if p == "" {
			p = s.Purpose
		}

		c, next, err := e.newSession(identifier, p, now)
		if err != nil {
			return entity.MutationKeep, err
		}
		if r.carry != nil {
			r.carry(s, next)
		}

		code, fresh = c, next
		*s = *next
		return entity.MutationSave, nil
	})
	if errors.Is(err, entity.ErrSessionNotFound) {
		code, fresh, err = e.newSession(identifier, r.fallback, now)
		if err == nil {
			err = e.repo.Create(ctx, *fresh)
		}
	}
	if err != nil {
		var failure *Failure
		if errors.As(err, &failure) {
			return nil, e.release(ctx, identifier, failure)
		}
		return nil, e.release(ctx, identifier, fmt.Errorf("replace session: %w", err))
	}

	return e.issued(code, fresh), nil
}
