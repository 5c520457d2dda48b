package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/cardnote/internal/pkg/clock"
	"github.com/shandysiswandi/cardnote/internal/pkg/instrument"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

const grace = time.Minute

type repository interface {
	Create(ctx context.Context, s entity.Session) error
	Get(ctx context.Context, identifier string) (*entity.Session, error)
	Delete(ctx context.Context, identifier string) error
	CompareAndUpdate(ctx context.Context, identifier string, fn entity.Mutator) error
	Reap(ctx context.Context) (int, error)
}

func backends(t *testing.T) map[string]func(*clock.Manual) repository {
	return map[string]func(*clock.Manual) repository{
		"memory": func(c *clock.Manual) repository {
			return NewMemory(c, grace)
		},
		"redis": func(c *clock.Manual) repository {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })
			return NewRedis(rdb, c, grace, instrument.NewNoop())
		},
	}
}

func session(id string) entity.Session {
	return entity.Session{
		Identifier:   id,
		Purpose:      entity.PurposeSignup,
		CodeHash:     "digest",
		CreatedAt:    t0,
		ExpiresAt:    t0.Add(5 * time.Minute),
		MaxAttempts:  3,
		LastIssuedAt: t0,
	}
}

func TestStore_CreateGetDelete(t *testing.T) {
	for name, build := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			repo := build(clock.NewManual(t0))

			_, err := repo.Get(ctx, "a@example.com")
			require.ErrorIs(t, err, entity.ErrSessionNotFound)

			require.NoError(t, repo.Create(ctx, session("a@example.com")))

			got, err := repo.Get(ctx, "a@example.com")
			require.NoError(t, err)
			assert.Equal(t, "digest", got.CodeHash)
			assert.True(t, got.ExpiresAt.Equal(t0.Add(5*time.Minute)))

			replacement := session("a@example.com")
			replacement.CodeHash = "other"
			require.NoError(t, repo.Create(ctx, replacement))

			got, err = repo.Get(ctx, "a@example.com")
			require.NoError(t, err)
			assert.Equal(t, "other", got.CodeHash)

			require.NoError(t, repo.Delete(ctx, "a@example.com"))
			_, err = repo.Get(ctx, "a@example.com")
			assert.ErrorIs(t, err, entity.ErrSessionNotFound)

			assert.NoError(t, repo.Delete(ctx, "a@example.com"))
		})
	}
}

func TestStore_Retention(t *testing.T) {
	for name, build := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			clk := clock.NewManual(t0)
			repo := build(clk)

			s := session("a@example.com")
			until := t0.Add(15 * time.Minute)
			s.LockedUntil = &until
			require.NoError(t, repo.Create(ctx, s))

			clk.Advance(15*time.Minute + grace)
			_, err := repo.Get(ctx, "a@example.com")
			require.NoError(t, err, "kept until lock end plus grace")

			clk.Advance(time.Second)
			_, err = repo.Get(ctx, "a@example.com")
			assert.ErrorIs(t, err, entity.ErrSessionNotFound)
		})
	}
}

func TestStore_CompareAndUpdate(t *testing.T) {
	errRefused := errors.New("refused")

	for name, build := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			repo := build(clock.NewManual(t0))

			err := repo.CompareAndUpdate(ctx, "a@example.com", func(*entity.Session) (entity.Mutation, error) {
				return entity.MutationSave, nil
			})
			require.ErrorIs(t, err, entity.ErrSessionNotFound)

			require.NoError(t, repo.Create(ctx, session("a@example.com")))

			// Save persists and still surfaces the callback error.
			err = repo.CompareAndUpdate(ctx, "a@example.com", func(s *entity.Session) (entity.Mutation, error) {
				s.AttemptCount++
				return entity.MutationSave, errRefused
			})
			require.ErrorIs(t, err, errRefused)

			got, err := repo.Get(ctx, "a@example.com")
			require.NoError(t, err)
			assert.Equal(t, 1, got.AttemptCount)

			// Keep discards changes made by the callback.
			err = repo.CompareAndUpdate(ctx, "a@example.com", func(s *entity.Session) (entity.Mutation, error) {
				s.AttemptCount = 99
				return entity.MutationKeep, nil
			})
			require.NoError(t, err)

			got, err = repo.Get(ctx, "a@example.com")
			require.NoError(t, err)
			assert.Equal(t, 1, got.AttemptCount)

			err = repo.CompareAndUpdate(ctx, "a@example.com", func(*entity.Session) (entity.Mutation, error) {
				return entity.MutationDelete, nil
			})
			require.NoError(t, err)

			_, err = repo.Get(ctx, "a@example.com")
			assert.ErrorIs(t, err, entity.ErrSessionNotFound)
		})
	}
}

func TestStore_CompareAndUpdateSerializes(t *testing.T) {
	for name, build := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			repo := build(clock.NewManual(t0))

			s := session("a@example.com")
			s.MaxAttempts = 100
			require.NoError(t, repo.Create(ctx, s))

			const workers = 4
			var wg sync.WaitGroup
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := repo.CompareAndUpdate(ctx, "a@example.com", func(s *entity.Session) (entity.Mutation, error) {
						s.AttemptCount++
						return entity.MutationSave, nil
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			got, err := repo.Get(ctx, "a@example.com")
			require.NoError(t, err)
			assert.Equal(t, workers, got.AttemptCount)
		})
	}
}

func TestMemory_Reap(t *testing.T) {
	ctx := t.Context()
	clk := clock.NewManual(t0)
	repo := NewMemory(clk, grace)

	require.NoError(t, repo.Create(ctx, session("a@example.com")))

	later := session("b@example.com")
	later.ExpiresAt = t0.Add(time.Hour)
	require.NoError(t, repo.Create(ctx, later))
	assert.EqualValues(t, 2, repo.Len())

	clk.Advance(10 * time.Minute)
	n, err := repo.Reap(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.EqualValues(t, 1, repo.Len())

	_, err = repo.Get(ctx, "b@example.com")
	assert.NoError(t, err)
}

func TestMemory_ReapCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := NewMemory(clock.NewManual(t0), grace).Reap(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedis_ReapIsNoop(t *testing.T) {
	n, err := NewRedis(nil, clock.NewManual(t0), grace, instrument.NewNoop()).Reap(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
}
