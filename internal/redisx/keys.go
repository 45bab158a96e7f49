package redisx

import "time"

const (
	// Order detail cache: order:{order_id} -> JSON order with items
	KeyOrder = "order:%d"
	// Bumped on every invalidation: order:{order_id}:ver -> int
	KeyOrderVersion = "order:%d:ver"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache   = 5 * time.Minute
	TTLOrderVersion = 24 * time.Hour
	TTLDedup        = 48 * time.Hour
)
