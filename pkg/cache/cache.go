package cache

import (
	"context"
	"time"
)

// Cache is the read-through cache surface injected into services. Lookups
// that miss or fail must never break the caller; implementations return
// found=false and the caller falls through to the source of truth.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}
