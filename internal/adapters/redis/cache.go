package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robertarktes/clinic-front-desk/internal/domain"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func snapshotKey(day domain.Day) string {
	return "queue:snapshot:" + day.String()
}

// GetSnapshot returns the cached queue snapshot JSON for the day, or
// nil on a miss.
func (c *Cache) GetSnapshot(ctx context.Context, day domain.Day) ([]byte, error) {
	val, err := c.client.Get(ctx, snapshotKey(day)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (c *Cache) SetSnapshot(ctx context.Context, day domain.Day, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(day), data, ttl).Err()
}

// InvalidateSnapshot drops the cached snapshot after any queue
// mutation so readers never see a stale cursor past the TTL.
func (c *Cache) InvalidateSnapshot(ctx context.Context, day domain.Day) error {
	return c.client.Del(ctx, snapshotKey(day)).Err()
}
