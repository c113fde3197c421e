package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/pos-register/internal/catalog"
	"github.com/noah-isme/pos-register/internal/lock"
	"github.com/noah-isme/pos-register/internal/sale"
)

// Redis keeps item records through the catalog cache and stock as integer
// counters next to them.
type Redis struct {
	client *redis.Client
	items  *catalog.Cache
	prefix string
	locker lock.Locker
}

// NewRedis builds a Redis-backed store. ttl applies to item records only.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		items:  catalog.NewCache(client, prefix, ttl),
		prefix: prefix,
		locker: lock.New(client, 5*time.Second, 10*time.Millisecond),
	}
}

// StockKey returns the counter key for the item id.
func (r *Redis) StockKey(id string) string {
	if r.prefix == "" {
		return "stock:" + id
	}
	return r.prefix + ":stock:" + id
}

func (r *Redis) RetrieveItem(ctx context.Context, id string) (catalog.Item, error) {
	it, ok, err := r.items.GetItem(ctx, id)
	if err != nil {
		return catalog.Item{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if !ok {
		return catalog.Item{}, fmt.Errorf("%w: %q", ErrItemNotFound, id)
	}
	return it, nil
}

// UpdateInventory decrements the stock counter of every sold item, flooring
// at zero. Items without a counter are skipped.
func (r *Redis) UpdateInventory(ctx context.Context, snap sale.Snapshot) error {
	ids, counts := soldUnits(snap)
	var errs []error
	for _, id := range ids {
		if err := r.decrement(ctx, id, counts[id]); err != nil {
			errs = append(errs, fmt.Errorf("item %s: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, errors.Join(errs...))
	}
	return nil
}

func (r *Redis) decrement(ctx context.Context, id string, n int) error {
	key := r.StockKey(id)
	return r.locker.WithLock(ctx, key+":lock", func(ctx context.Context) error {
		left, err := r.client.Get(ctx, key).Int()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		return r.client.Set(ctx, key, max(0, left-n), 0).Err()
	})
}

// Seed stores every entry's item record and stock counter.
func (r *Redis) Seed(ctx context.Context, entries ...Entry) error {
	for _, e := range entries {
		if err := r.items.PutItem(ctx, e.Item); err != nil {
			return fmt.Errorf("seed %s: %w", e.Item.ID, err)
		}
		if err := r.client.Set(ctx, r.StockKey(e.Item.ID), strconv.Itoa(max(0, e.Stock)), 0).Err(); err != nil {
			return fmt.Errorf("seed %s stock: %w", e.Item.ID, err)
		}
	}
	return nil
}

// Stock returns the units left of id. ok is false when no counter exists.
func (r *Redis) Stock(ctx context.Context, id string) (int, bool, error) {
	n, err := r.client.Get(ctx, r.StockKey(id)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}
