package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis stores each collection under one string key.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a redis-backed store. An empty prefix defaults to "pantry".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "pantry"
	}
	return &Redis{client: client, prefix: prefix}
}

// Load implements DocumentStore.
func (r *Redis) Load(ctx context.Context, collection Collection, unitID string, dest any) error {
	raw, err := r.client.Get(ctx, r.key(collection, unitID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMissing
	}
	if err != nil {
		return fmt.Errorf("store: redis get: %w", err)
	}
	return decode(collection, unitID, raw, dest)
}

// SaveAll implements DocumentStore using MULTI/EXEC.
func (r *Redis) SaveAll(ctx context.Context, docs ...Document) error {
	encoded, err := encode(docs)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, doc := range docs {
			pipe.Set(ctx, r.key(doc.Collection, doc.UnitID), encoded[i], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: redis save: %w", err)
	}
	return nil
}

func (r *Redis) key(collection Collection, unitID string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, collection, unitID)
}
