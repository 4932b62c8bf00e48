package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get and Take when the key does not exist.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache defines the interface for caching services.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	// Take returns the value and removes the key in one step, so a value can be consumed once.
	Take(ctx context.Context, key string) (string, error)
}
