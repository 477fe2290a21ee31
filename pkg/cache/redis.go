package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type PeekCacheInterface interface {
	Get(ctx context.Context, id string) (*CachedPeek, error)
	Set(ctx context.Context, id string, peek *CachedPeek, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// CachedPeek holds the non-consuming metadata a peek returns. Only records
// without a view ceiling are cached; a ceiling check needs the live counter.
type CachedPeek struct {
	Kind        string    `json:"kind"`
	DisplayName *string   `json:"display_name,omitempty"`
	Protected   bool      `json:"protected"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type PeekCache struct {
	client *redis.Client
}

func NewPeekCache(client *redis.Client) *PeekCache {
	return &PeekCache{client: client}
}

func (c *PeekCache) Get(ctx context.Context, id string) (*CachedPeek, error) {
	key := "peek:" + id
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cached CachedPeek
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func (c *PeekCache) Set(ctx context.Context, id string, peek *CachedPeek, ttl time.Duration) error {
	key := "peek:" + id
	data, err := json.Marshal(peek)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *PeekCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, "peek:"+id).Err()
}

var _ PeekCacheInterface = (*PeekCache)(nil)
