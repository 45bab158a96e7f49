package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/redis/go-redis/v9"
)

var errStaleOrder = errors.New("order invalidated since read")

// OrderCache implements market.OrderCache with a version counter per order
// guarding writes through WATCH/MULTI.
type OrderCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewOrderCache(rdb *redis.Client, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = TTLOrderCache
	}
	return &OrderCache{rdb: rdb, ttl: ttl}
}

func (c *OrderCache) Get(ctx context.Context, id int64) (market.Order, bool, error) {
	b, err := c.rdb.Get(ctx, fmt.Sprintf(KeyOrder, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return market.Order{}, false, nil
	}
	if err != nil {
		return market.Order{}, false, err
	}
	var o market.Order
	if err := json.Unmarshal(b, &o); err != nil {
		return market.Order{}, false, fmt.Errorf("decode cached order %d: %w", id, err)
	}
	return o, true, nil
}

func (c *OrderCache) Version(ctx context.Context, id int64) (int64, error) {
	v, err := c.rdb.Get(ctx, fmt.Sprintf(KeyOrderVersion, id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Set stores o unless the order was invalidated after version was read.
// A skipped write is not an error.
func (c *OrderCache) Set(ctx context.Context, o market.Order, version int64) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	verKey := fmt.Sprintf(KeyOrderVersion, o.ID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, verKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return errStaleOrder
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, fmt.Sprintf(KeyOrder, o.ID), b, c.ttl)
			return nil
		})
		return err
	}, verKey)
	if errors.Is(err, errStaleOrder) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (c *OrderCache) Invalidate(ctx context.Context, id int64) error {
	verKey := fmt.Sprintf(KeyOrderVersion, id)
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, verKey)
		p.Expire(ctx, verKey, TTLOrderVersion)
		p.Del(ctx, fmt.Sprintf(KeyOrder, id))
		return nil
	})
	return err
}
