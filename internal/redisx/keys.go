package redisx

import "time"

const (
	// Idempotency: idem:{scope}:{key} -> "pending" while running, then the created id
	KeyIdempotency = "idem:%s:%s"

	// Cache status order: order_status:{order_id} -> {"status": "...", "updated_at": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

const (
	ScopeDirectSale  = "direct_sale"
	ScopeOnlineOrder = "online_order"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
