package cache

import (
	"context"
	"time"
)

// Cache stores opaque string values. Misses are reported with ok=false, never as errors.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
