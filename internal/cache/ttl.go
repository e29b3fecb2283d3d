package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/TemirB/storefront-api/internal/pkg/random"
)

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Entry is a value read from a TTL cache together with its expiry.
type Entry[T any] struct {
	Value     T
	ExpiresAt time.Time
	Hit       bool
}

// TTL holds a single value that is valid until a fixed instant.
// Reads never clear the value; an expired value is simply not returned.
type TTL[T any] struct {
	mu     sync.RWMutex
	ttl    time.Duration
	now    func() time.Time
	value  T
	expiry time.Time
	filled bool

	flight singleflight.Group
}

func NewTTL[T any](ttl time.Duration, opts ...Option) *TTL[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &TTL[T]{ttl: ttl, now: o.now}
}

// JitteredTTL picks a whole number of units in [min, max).
func JitteredTTL(rng *random.Source, min, max int, unit time.Duration) time.Duration {
	if max <= min {
		return time.Duration(min) * unit
	}
	return time.Duration(min+rng.IntN(max-min)) * unit
}

func (c *TTL[T]) TTL() time.Duration { return c.ttl }

// Set overwrites the value and restarts the expiry window.
func (c *TTL[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.expiry = c.now().Add(c.ttl)
	c.filled = true
}

func (c *TTL[T]) Get() (T, bool) {
	e, ok := c.entry()
	return e.Value, ok
}

// Expiry reports the absolute expiry, ok is false if the cache was never set.
func (c *TTL[T]) Expiry() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiry, c.filled
}

func (c *TTL[T]) entry() (Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.filled || c.now().After(c.expiry) {
		return Entry[T]{}, false
	}
	return Entry[T]{Value: c.value, ExpiresAt: c.expiry, Hit: true}, true
}

// GetOrLoad returns the cached value or runs load once for all concurrent
// callers. The load is detached from the caller's cancellation so an
// abandoned request does not poison the others.
func (c *TTL[T]) GetOrLoad(ctx context.Context, load func(context.Context) (T, error)) (Entry[T], error) {
	if e, ok := c.entry(); ok {
		return e, nil
	}

	ch := c.flight.DoChan("value", func() (any, error) {
		if e, ok := c.entry(); ok {
			return e, nil
		}
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return Entry[T]{}, err
		}
		c.Set(v)
		exp, _ := c.Expiry()
		return Entry[T]{Value: v, ExpiresAt: exp}, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Entry[T]{}, res.Err
		}
		return res.Val.(Entry[T]), nil
	case <-ctx.Done():
		return Entry[T]{}, ctx.Err()
	}
}
