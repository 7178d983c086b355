package shared

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = fmt.Errorf("idempotent request already processed: %w", ErrConflict)

// IdempotencyStore persists processed keys in postgres, redis or process memory,
// whichever backend it was built with.
type IdempotencyStore struct {
	pool  *pgxpool.Pool
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time

	mu  sync.Mutex
	mem map[string]time.Time
}

// NewIdempotencyStore constructs the postgres-backed store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool, now: time.Now}
}

// NewRedisIdempotencyStore constructs a store whose keys expire after ttl.
func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{redis: client, ttl: ttl, now: time.Now}
}

// NewMemoryIdempotencyStore constructs a process-local store.
func NewMemoryIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{mem: make(map[string]time.Time), now: time.Now}
}

// CheckAndInsert ensures key uniqueness per module.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	switch {
	case s.pool != nil:
		_, err := s.pool.Exec(ctx, `INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, $3)`, key, module, s.now())
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrIdempotencyConflict
			}
			return err
		}
		return nil
	case s.redis != nil:
		ok, err := s.redis.SetNX(ctx, idempotencyKey(module, key), s.now().Unix(), s.ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			return ErrIdempotencyConflict
		}
		return nil
	default:
		s.mu.Lock()
		defer s.mu.Unlock()
		k := idempotencyKey(module, key)
		if _, exists := s.mem[k]; exists {
			return ErrIdempotencyConflict
		}
		s.mem[k] = s.now()
		return nil
	}
}

// Cleanup removes entries older than retention.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if s == nil {
		return nil
	}
	cutoff := s.now().Add(-olderThan)
	switch {
	case s.pool != nil:
		_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
		return err
	case s.redis != nil:
		return nil
	default:
		s.mu.Lock()
		defer s.mu.Unlock()
		for k, at := range s.mem {
			if at.Before(cutoff) {
				delete(s.mem, k)
			}
		}
		return nil
	}
}

// Delete removes a key, typically used to roll back failed processing.
func (s *IdempotencyStore) Delete(ctx context.Context, key, module string) error {
	if s == nil {
		return nil
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	switch {
	case s.pool != nil:
		_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key=$1 AND module=$2`, key, module)
		return err
	case s.redis != nil:
		return s.redis.Del(ctx, idempotencyKey(module, key)).Err()
	default:
		s.mu.Lock()
		delete(s.mem, idempotencyKey(module, key))
		s.mu.Unlock()
		return nil
	}
}

func idempotencyKey(module, key string) string {
	return "pantry:idem:" + module + ":" + key
}
