package engine

import (
	"errors"
	"fmt"
	"time"
)

// Reason classifies an expected, user-recoverable verification outcome.
type Reason int

const (
	ReasonNotFound Reason = iota + 1
	ReasonExpired
	ReasonInvalidCode
	ReasonLocked
	ReasonCooldownActive
)

func (r Reason) String() string {
	switch r {
	case ReasonNotFound:
		return "not_found"
	case ReasonExpired:
		return "expired"
	case ReasonInvalidCode:
		return "invalid_code"
	case ReasonLocked:
		return "locked"
	case ReasonCooldownActive:
		return "cooldown_active"
	default:
		return "unknown"
	}
}

// Failure is the typed result of a refused operation. Match it with
// errors.Is against the sentinels below, and read details with errors.As.
type Failure struct {
	Reason Reason

	// AttemptsRemaining is set for ReasonInvalidCode.
	AttemptsRemaining int
	// LockedUntil is set for ReasonLocked. It may be in the past when the
	// attempts are used up and only a resend can unlock the identifier.
	LockedUntil time.Time
	// RetryAfter is set for ReasonLocked and ReasonCooldownActive.
	RetryAfter time.Duration
}

var (
	ErrNotFound       = &Failure{Reason: ReasonNotFound}
	ErrExpired        = &Failure{Reason: ReasonExpired}
	ErrInvalidCode    = &Failure{Reason: ReasonInvalidCode}
	ErrLocked         = &Failure{Reason: ReasonLocked}
	ErrCooldownActive = &Failure{Reason: ReasonCooldownActive}

	// ErrInvalidConfig is returned by New for unusable policy values.
	ErrInvalidConfig = errors.New("verification: invalid engine config")
)

func (f *Failure) Error() string {
	switch f.Reason {
	case ReasonInvalidCode:
		return fmt.Sprintf("verification: invalid code, %d attempts remaining", f.AttemptsRemaining)
	case ReasonLocked:
		return fmt.Sprintf("verification: locked until %s", f.LockedUntil.Format(time.RFC3339))
	case ReasonCooldownActive:
		return fmt.Sprintf("verification: cooldown active, retry after %s", f.RetryAfter)
	default:
		return "verification: " + f.Reason.String()
	}
}

// Is matches any Failure with the same Reason.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	return ok && t.Reason == f.Reason
}
