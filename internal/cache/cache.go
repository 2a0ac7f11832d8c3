// Package cache provides the TTL cache shared by the authentication components. Keys are
// namespaced by prefix per component; values are opaque bytes, usually JSON.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value stored for key or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value for ttl. A non-positive ttl stores nothing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes keys; absent keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Close releases the underlying resources.
	Close() error
}

// GetJSON decodes the JSON value stored for key. found is false on a miss.
func GetJSON[T any](ctx context.Context, c Cache, key string) (value T, found bool, err error) {
	data, err := c.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return value, false, nil
		}
		return value, false, err
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, err
	}
	return value, true, nil
}

// SetJSON stores value encoded as JSON.
func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
