package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/starva/storefront/internal/core/domain"
)

const cartKeyPrefix = "cart:"

// RedisAdapter persists the cart as a JSON blob under a fixed per-profile
// key, so the cart survives restarts. Only items, deliveryLocation and
// orderNotes ever hit storage; derived values are recomputed on load.
type RedisAdapter struct {
	client  *redis.Client
	profile string
}

func NewRedisAdapter(client *redis.Client, profile string) *RedisAdapter {
	return &RedisAdapter{client: client, profile: profile}
}

func (r *RedisAdapter) key() string {
	return cartKeyPrefix + r.profile
}

func (r *RedisAdapter) Load(ctx context.Context) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, r.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return &domain.Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &cart, nil
}

func (r *RedisAdapter) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.client.Set(ctx, r.key(), data, 0).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
