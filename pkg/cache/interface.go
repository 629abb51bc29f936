package cache

import (
	"context"
)

// Cache is the read-through surface the translation service caches
// results behind.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Close() error
}
