package engine

import (
	"context"

	"github.com/samber/lo"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
)

// Resend replaces the code of an existing session with a fresh one and new
// timers. Without a session it behaves like RequestCode; an empty purpose then
// defaults to signup, while an existing session keeps its own purpose unless
// one is given. Like RequestCode it fails with ErrLocked during an active lock
// when Config.LockBlocksReissue is set.
func (e *Engine) Resend(ctx context.Context, identifier string, purpose entity.Purpose) (*Issued, error) {
	identifier = entity.NormalizeIdentifier(identifier)
	now := e.clock.Now()

	current, err := e.lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return e.issue(ctx, identifier, now, reissue{
			purpose:  purpose,
			fallback: lo.CoalesceOrEmpty(purpose, entity.PurposeSignup),
		})
	}
	if e.cfg.LockBlocksReissue && current.IsLocked(now) {
		return nil, lockedFailure(current, now)
	}

	r := reissue{
		purpose: purpose,
		// Verified or reaped between the lookup and the update.
		fallback: lo.CoalesceOrEmpty(purpose, current.Purpose),
	}
	if !e.cfg.ResetAttemptsOnResend {
		r.carry = func(prev, next *entity.Session) {
			if !prev.AttemptsExhausted() {
				next.AttemptCount = prev.AttemptCount
			}
		}
	}

	return e.issue(ctx, identifier, now, r)
}
