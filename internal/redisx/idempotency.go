package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pending = "pending"

// ErrInFlight means another request holding the same key has not finished.
var ErrInFlight = errors.New("request with this idempotency key is in progress")

type Idempotency struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotency(rdb *redis.Client, ttl time.Duration) *Idempotency {
	if ttl <= 0 {
		ttl = TTLIdempotency
	}
	return &Idempotency{rdb: rdb, ttl: ttl}
}

// Begin claims key for scope. When the key already completed it returns the
// stored id and started=false.
func (s *Idempotency) Begin(ctx context.Context, scope, key string) (id string, started bool, err error) {
	k := fmt.Sprintf(KeyIdempotency, scope, key)
	ok, err := s.rdb.SetNX(ctx, k, pending, s.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	val, err := s.rdb.Get(ctx, k).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// expired between SETNX and GET; let the caller retry
		return "", false, ErrInFlight
	case err != nil:
		return "", false, err
	case val == pending:
		return "", false, ErrInFlight
	}
	return val, false, nil
}

func (s *Idempotency) Complete(ctx context.Context, scope, key, id string) error {
	return s.rdb.Set(ctx, fmt.Sprintf(KeyIdempotency, scope, key), id, s.ttl).Err()
}

// Abort frees the key so a failed request can be retried.
func (s *Idempotency) Abort(ctx context.Context, scope, key string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(KeyIdempotency, scope, key)).Err()
}
