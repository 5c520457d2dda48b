package store

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
	"go.uber.org/atomic"
)

const defaultShards = 32

type shard struct {
	mu       sync.Mutex
	sessions map[string]*entity.Session
}

// Memory keeps sessions in process memory. Mutations on one identifier are
// serialized by the lock of the shard the identifier hashes to.
type Memory struct {
	shards []*shard
	clock  clocker
	grace  time.Duration
	size   *atomic.Int64
}

// NewMemory returns an empty store. Sessions are dropped grace after their
// expiry or lock end, whichever is later.
func NewMemory(clock clocker, grace time.Duration) *Memory {
	shards := make([]*shard, defaultShards)
	for i := range shards {
		shards[i] = &shard{sessions: make(map[string]*entity.Session)}
	}

	return &Memory{
		shards: shards,
		clock:  clock,
		grace:  grace,
		size:   atomic.NewInt64(0),
	}
}

// Len is the number of sessions currently held, including ones not reaped yet.
func (m *Memory) Len() int64 {
	return m.size.Load()
}

func (m *Memory) shardFor(identifier string) *shard {
	return m.shards[xxhash.Sum64String(identifier)%uint64(len(m.shards))]
}

// fetch returns the live session for identifier, evicting it when past
// retention. The shard lock must be held.
func (m *Memory) fetch(sh *shard, identifier string) *entity.Session {
	s, ok := sh.sessions[identifier]
	if !ok {
		return nil
	}
	if !retained(s, m.clock.Now(), m.grace) {
		delete(sh.sessions, identifier)
		m.size.Dec()
		return nil
	}
	return s
}

func (m *Memory) put(sh *shard, s *entity.Session) {
	if _, ok := sh.sessions[s.Identifier]; !ok {
		m.size.Inc()
	}
	sh.sessions[s.Identifier] = s
}

func (m *Memory) remove(sh *shard, identifier string) {
	if _, ok := sh.sessions[identifier]; ok {
		delete(sh.sessions, identifier)
		m.size.Dec()
	}
}

func (m *Memory) Create(_ context.Context, s entity.Session) error {
	sh := m.shardFor(s.Identifier)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	m.put(sh, s.Clone())
	return nil
}

func (m *Memory) Get(_ context.Context, identifier string) (*entity.Session, error) {
	sh := m.shardFor(identifier)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	s := m.fetch(sh, identifier)
	if s == nil {
		return nil, entity.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *Memory) Delete(_ context.Context, identifier string) error {
	sh := m.shardFor(identifier)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	m.remove(sh, identifier)
	return nil
}

func (m *Memory) CompareAndUpdate(_ context.Context, identifier string, fn entity.Mutator) error {
	sh := m.shardFor(identifier)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	s := m.fetch(sh, identifier)
	if s == nil {
		return entity.ErrSessionNotFound
	}

	work := s.Clone()
	mutation, err := fn(work)
	switch mutation {
	case entity.MutationSave:
		work.Identifier = identifier
		m.put(sh, work)
	case entity.MutationDelete:
		m.remove(sh, identifier)
	}

	return err
}

// Reap drops every session past retention and reports how many went.
func (m *Memory) Reap(ctx context.Context) (int, error) {
	now := m.clock.Now()
	reaped := 0

	for _, sh := range m.shards {
		if err := ctx.Err(); err != nil {
			return reaped, err
		}

		sh.mu.Lock()
		for id, s := range sh.sessions {
			if !retained(s, now, m.grace) {
				delete(sh.sessions, id)
				m.size.Dec()
				reaped++
			}
		}
		sh.mu.Unlock()
	}

	return reaped, nil
}
