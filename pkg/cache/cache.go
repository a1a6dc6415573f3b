package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	// SetNX stores value only if key is absent. It reports whether the write happened.
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	// Keys lists unprefixed keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// TryLock takes key for ttl, holding token as the owner.
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	// Unlock releases key only while token still owns it, reporting whether it did.
	Unlock(ctx context.Context, key, token string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// GetOrLoad returns the cached value for key, or calls load and caches its result.
// Cache failures never fail the call; only load errors are returned.
func GetOrLoad[T any](ctx context.Context, c Service, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var v T
	if c != nil {
		if err := c.Get(ctx, key, &v); err == nil {
			return v, nil
		}
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if c != nil && ttl > 0 {
		_ = c.Set(ctx, key, v, ttl)
	}
	return v, nil
}
