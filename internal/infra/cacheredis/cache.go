package cacheredis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"storegate/internal/domain"
	"storegate/internal/usecase"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "storegate:verify:"

// Cache stores verification results in redis, letting multiple edge workers
// behind one storefront share positive results and their TTLs.
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) (*Cache, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &Cache{client: client}, nil
}

func (c *Cache) Get(ctx context.Context, key string) (*domain.VerificationResult, bool, error) {
	payload, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var result domain.VerificationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		// A corrupt entry is a miss, not an outage; drop it.
		_ = c.client.Del(ctx, keyPrefix+key).Err()
		return nil, false, nil
	}
	return &result, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, value domain.VerificationResult, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+key, payload, ttl).Err()
}

func (c *Cache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, keyPrefix+key).Err()
}

var _ usecase.VerificationCache = (*Cache)(nil)
