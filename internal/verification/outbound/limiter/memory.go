package limiter

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local cooldown limiter.
type Memory struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     map[string]time.Time
}

func NewMemory(cooldown time.Duration) *Memory {
	return &Memory{
		cooldown: cooldown,
		last:     make(map[string]time.Time),
	}
}

func (m *Memory) Reserve(_ context.Context, identifier string, now time.Time) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.last[identifier]; ok {
		if d := wait(last, now, m.cooldown); d > 0 {
			return false, d, nil
		}
	}

	m.last[identifier] = now
	return true, 0, nil
}

func (m *Memory) Release(_ context.Context, identifier string) error {
	m.mu.Lock()
	delete(m.last, identifier)
	m.mu.Unlock()
	return nil
}

// Prune forgets reservations whose cooldown is over and reports how many
// went. It runs on the reaper schedule rather than on every Reserve.
func (m *Memory) Prune(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, last := range m.last {
		if wait(last, now, m.cooldown) == 0 {
			delete(m.last, id)
			n++
		}
	}
	return n
}

// Len reports how many reservations are held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.last)
}
