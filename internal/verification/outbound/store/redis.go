package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/cardnote/internal/pkg/instrument"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	redisKeyPrefix   = "verification:session:"
	redisCASRetries  = 5
	redisCASInterval = 10 * time.Millisecond
)

// Redis stores each session as a JSON value whose TTL matches its retention.
// CompareAndUpdate is an optimistic WATCH/MULTI transaction retried when
// another writer touched the key first.
type Redis struct {
	client *redis.Client
	clock  clocker
	grace  time.Duration
	ins    instrument.Instrumentation
}

func NewRedis(client *redis.Client, clock clocker, grace time.Duration, ins instrument.Instrumentation) *Redis {
	return &Redis{
		client: client,
		clock:  clock,
		grace:  grace,
		ins:    ins,
	}
}

func (r *Redis) key(identifier string) string {
	return redisKeyPrefix + identifier
}

func (r *Redis) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return r.ins.Tracer("verification.outbound.store").Start(ctx, name)
}

func (r *Redis) endSpan(span trace.Span, err error) {
	var failure interface{ Is(error) bool }
	if err != nil && !errors.Is(err, entity.ErrSessionNotFound) && !errors.As(err, &failure) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ttl is the remaining retention of s, at least one millisecond so a write
// never turns into a persistent key.
func (r *Redis) ttl(s *entity.Session) time.Duration {
	return max(s.RetainUntil(r.grace).Sub(r.clock.Now()), time.Millisecond)
}

func (r *Redis) decode(raw []byte) (*entity.Session, error) {
	var s entity.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !retained(&s, r.clock.Now(), r.grace) {
		return nil, entity.ErrSessionNotFound
	}
	return &s, nil
}

func (r *Redis) Create(ctx context.Context, s entity.Session) (err error) {
	ctx, span := r.startSpan(ctx, "Create")
	defer func() { r.endSpan(span, err) }()

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	return r.client.Set(ctx, r.key(s.Identifier), raw, r.ttl(&s)).Err()
}

func (r *Redis) Get(ctx context.Context, identifier string) (s *entity.Session, err error) {
	ctx, span := r.startSpan(ctx, "Get")
	defer func() { r.endSpan(span, err) }()

	raw, err := r.client.Get(ctx, r.key(identifier)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, entity.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	return r.decode(raw)
}

func (r *Redis) Delete(ctx context.Context, identifier string) (err error) {
	ctx, span := r.startSpan(ctx, "Delete")
	defer func() { r.endSpan(span, err) }()

	return r.client.Del(ctx, r.key(identifier)).Err()
}

func (r *Redis) CompareAndUpdate(ctx context.Context, identifier string, fn entity.Mutator) (err error) {
	ctx, span := r.startSpan(ctx, "CompareAndUpdate")
	defer func() { r.endSpan(span, err) }()

	key := r.key(identifier)
	backoff := retry.WithMaxRetries(redisCASRetries, retry.NewExponential(redisCASInterval))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			return r.apply(ctx, tx, key, identifier, fn)
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// apply runs one optimistic attempt inside WATCH.
func (r *Redis) apply(ctx context.Context, tx *redis.Tx, key, identifier string, fn entity.Mutator) error {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.ErrSessionNotFound
	}
	if err != nil {
		return err
	}

	s, err := r.decode(raw)
	if err != nil {
		return err
	}

	mutation, fnErr := fn(s)
	switch mutation {
	case entity.MutationSave:
		s.Identifier = identifier
		encoded, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, r.ttl(s))
			return nil
		}); err != nil {
			return err
		}
	case entity.MutationDelete:
		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		}); err != nil {
			return err
		}
	}

	return fnErr
}

// Reap is a no-op; Redis expires keys on its own.
func (r *Redis) Reap(context.Context) (int, error) {
	return 0, nil
}
