// Package limiter enforces the cooldown between two code issuances for the
// same identifier. The time of the last issuance is supplied by the caller so
// both implementations follow the application clock.
package limiter

import "time"

// wait is how long remains of the cooldown started at last, or zero.
func wait(last, now time.Time, cooldown time.Duration) time.Duration {
	return max(last.Add(cooldown).Sub(now), 0)
}
