package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores item records as JSON in Redis. A zero TTL keeps keys forever.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCache constructs a cache helper. Keys are namespaced with prefix.
func NewCache(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// Key returns the namespaced key used for the item id.
func (c *Cache) Key(id string) string {
	if c == nil || c.prefix == "" {
		return "item:" + id
	}
	return c.prefix + ":item:" + id
}

// GetItem loads an item record. It reports whether the key existed.
func (c *Cache) GetItem(ctx context.Context, id string) (Item, bool, error) {
	var it Item
	ok, err := c.GetJSON(ctx, c.Key(id), &it)
	if err != nil || !ok {
		return Item{}, ok, err
	}
	return it, true, nil
}

// PutItem stores an item record under its id.
func (c *Cache) PutItem(ctx context.Context, it Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	return c.SetJSON(ctx, c.Key(it.ID), it)
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return errors.New("catalog: cache not configured")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
