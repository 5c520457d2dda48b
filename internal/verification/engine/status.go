package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/shandysiswandi/cardnote/internal/verification/entity"
)

// Status reports the countdowns of the session for identifier. A missing
// session yields StateNoSession rather than an error.
func (e *Engine) Status(ctx context.Context, identifier string) (entity.Countdown, error) {
	identifier = entity.NormalizeIdentifier(identifier)

	s, err := e.lookup(ctx, identifier)
	if err != nil {
		return entity.Countdown{}, err
	}

	return entity.Remaining(s, e.clock.Now(), e.cfg.Cooldown), nil
}

// Discard rolls back an issuance whose delivery failed: the session is removed
// and the cooldown reservation released so the caller may retry at once.
func (e *Engine) Discard(ctx context.Context, identifier string) error {
	identifier = entity.NormalizeIdentifier(identifier)

	var errs []error
	if err := e.repo.Delete(ctx, identifier); err != nil && !errors.Is(err, entity.ErrSessionNotFound) {
		errs = append(errs, fmt.Errorf("delete session: %w", err))
	}
	if err := e.limiter.Release(ctx, identifier); err != nil {
		errs = append(errs, fmt.Errorf("release cooldown: %w", err))
	}

	return errors.Join(errs...)
}
