package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	versionKeyPrefix = "insights:version:"
	// BumpChannel receives the unit ID whenever its stock changes.
	BumpChannel = "pantry.stock.bump"
)

// Cache wraps Redis based caching with per-unit version controls. A nil Cache
// or one without a client always calls the loader.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the unit's cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context, unitID string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	key := versionKeyPrefix + unitID
	ver, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, key).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes the cache key with the unit's current version.
func (c *Cache) BuildKey(ctx context.Context, unitID string, parts ...string) (string, error) {
	ver, err := c.Version(ctx, unitID)
	if err != nil {
		return "", err
	}
	joined := strings.Join(append([]string{"insights", unitID}, parts...), ":")
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// FetchJSON loads a cached value or populates it using the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c != nil && c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c != nil && c.client != nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates the unit's entries by incrementing its version and
// publishing the unit ID on BumpChannel.
func (c *Cache) Bump(ctx context.Context, unitID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Incr(ctx, versionKeyPrefix+unitID).Err(); err != nil {
		return err
	}
	return c.client.Publish(ctx, BumpChannel, unitID).Err()
}

// ListenForInvalidation calls fn with the unit ID of every bump until ctx is
// done. It returns once the subscription is established.
func (c *Cache) ListenForInvalidation(ctx context.Context, fn func(unitID string)) error {
	if c == nil || c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, BumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg.Payload != "" {
					fn(msg.Payload)
				}
			}
		}
	}()
	return nil
}
