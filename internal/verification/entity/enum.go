package entity

import "strings"

// Purpose is why a code was issued. It travels with the session so the
// verified outcome can tell the identity provider what to finalize.
type Purpose string

const (
	PurposeSignup        Purpose = "signup"
	PurposePasswordReset Purpose = "password_reset"
)

// ParsePurpose maps user input to a known Purpose.
func ParsePurpose(s string) (Purpose, bool) {
	switch p := Purpose(strings.ToLower(strings.TrimSpace(s))); p {
	case PurposeSignup, PurposePasswordReset:
		return p, true
	default:
		return "", false
	}
}

func (p Purpose) String() string {
	return string(p)
}

// State is derived from a session at a point in time; it is never stored.
// Verified is not listed because a verified session is removed immediately.
type State int

const (
	StateNoSession State = iota
	StateActive
	StateLocked
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateLocked:
		return "locked"
	case StateExpired:
		return "expired"
	default:
		return "no_session"
	}
}
