package entity

import "time"

// Countdown is what a display layer needs to render timers. It is computed on
// demand; nothing schedules it.
type Countdown struct {
	State             State
	Purpose           Purpose
	ExpiresAt         time.Time
	ExpiresIn         time.Duration
	LockedUntil       time.Time
	LockedFor         time.Duration
	ResendAvailableAt time.Time
	CooldownLeft      time.Duration
	AttemptsRemaining int
}

// Remaining computes the countdown for session at now. A nil session yields
// StateNoSession with every timer at zero.
func Remaining(session *Session, now time.Time, cooldown time.Duration) Countdown {
	if session == nil {
		return Countdown{State: StateNoSession}
	}

	c := Countdown{
		State:             session.State(now),
		Purpose:           session.Purpose,
		ExpiresAt:         session.ExpiresAt,
		ExpiresIn:         max(session.ExpiresAt.Sub(now), 0),
		ResendAvailableAt: session.LastIssuedAt.Add(cooldown),
		AttemptsRemaining: session.AttemptsRemaining(),
	}
	c.CooldownLeft = max(c.ResendAvailableAt.Sub(now), 0)

	if session.LockedUntil != nil {
		c.LockedUntil = *session.LockedUntil
		c.LockedFor = max(session.LockedUntil.Sub(now), 0)
	}

	return c
}
