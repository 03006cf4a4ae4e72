package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hushimx/hostservice-cart/internal/cart"
)

// Redis stores each cart as one JSON blob per storage key. Records have no
// TTL; a cart only ever changes by being overwritten, and an explicit clear
// persists an empty record rather than deleting the key.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Load(ctx context.Context, key string) (*cart.Cart, error) {
	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var c cart.Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		// Corrupt record, treat as no cart yet.
		return nil, nil
	}
	return &c, nil
}

func (r *Redis) Save(ctx context.Context, key string, c *cart.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := r.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping reports whether the Redis backend is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
