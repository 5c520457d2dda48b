// Package clock is the time source of every expiry, lockout and cooldown
// decision. Production code reads it through Clocker; tests drive Manual.
package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the system clock.
type TimeClocker struct{}

func New() *TimeClocker {
	return &TimeClocker{}
}

// Now is in UTC and carries no monotonic reading, so a timestamp compares the
// same before and after it is stored in Redis.
func (*TimeClocker) Now() time.Time {
	return time.Now().UTC()
}
