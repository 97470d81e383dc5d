// Package cache is the read-through JSON cache used for job listings.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Remember returns the cached value for key, or loads and stores it.
// A nil cache always loads. Cache failures go to onErr and never fail
// the call.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, onErr func(error), load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	var cached T
	hit, err := c.GetJSON(ctx, key, &cached)
	if err != nil {
		onErr(err)
	} else if hit {
		return cached, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if err := c.SetJSON(ctx, key, v, ttl); err != nil {
		onErr(err)
	}
	return v, nil
}
