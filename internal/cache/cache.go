// Package cache holds the short code lookup cache that sits in front of
// storage on the redirect path.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotFound is returned when the key is absent or expired.
	ErrNotFound = errors.New("cache: not found")
	// ErrMarshal wraps serialization failures of Redis-backed caches.
	ErrMarshal = errors.New("cache: marshal failed")
)

// Cache is a key-value cache with TTL support. A zero TTL in Set means the
// cache's default TTL.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Loader computes a value on a cache miss.
type Loader[V any] func(ctx context.Context) (V, error)

// ReadThrough wraps a Cache so concurrent misses for the same key run the
// loader once.
type ReadThrough[V any] struct {
	cache Cache[V]
	group singleflight.Group
}

// NewReadThrough creates a read-through wrapper around c.
func NewReadThrough[V any](c Cache[V]) *ReadThrough[V] {
	return &ReadThrough[V]{cache: c}
}

// GetOrLoad returns the cached value or loads, caches and returns it.
// Loader errors are returned as-is and nothing is cached. Cache backend
// errors never fail the call.
func (r *ReadThrough[V]) GetOrLoad(ctx context.Context, key string, load Loader[V]) (V, error) {
	if v, err := r.cache.Get(ctx, key); err == nil {
		return v, nil
	}

	// the flight is shared, so one caller going away must not fail the others
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(key, func() (any, error) {
		val, err := load(flightCtx)
		if err != nil {
			return nil, err
		}
		_ = r.cache.Set(flightCtx, key, val, 0)
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Invalidate drops key from the underlying cache.
func (r *ReadThrough[V]) Invalidate(ctx context.Context, key string) error {
	return r.cache.Delete(ctx, key)
}

func marshal[V any](v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func unmarshal[V any](data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrMarshal, err)
	}
	return v, nil
}
