package providers

import (
	"context"
	"time"
)

// CacheProvider is a byte-oriented cache with per-key TTLs.
type CacheProvider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// GetJSON unmarshals a cached value into dest. Returns a NOT_FOUND
	// error on a cache miss.
	GetJSON(ctx context.Context, key string, dest any) error

	// SetJSON marshals value and stores it under key.
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}
