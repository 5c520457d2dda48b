// Package store holds the session repositories: a sharded in-process map for
// single-node deployments and a Redis-backed store for shared state.
package store

import (
	"time"

	"github.com/shandysiswandi/cardnote/internal/verification/entity"
)

type clocker interface {
	Now() time.Time
}

// retained reports whether s must still be served at now.
func retained(s *entity.Session, now time.Time, grace time.Duration) bool {
	return !now.After(s.RetainUntil(grace))
}
