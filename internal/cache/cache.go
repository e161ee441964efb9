package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	val T
	exp time.Time
}

// TTL is a concurrency-safe map whose entries expire after a fixed time.
// Expired entries are dropped lazily on access and swept on Set once the
// map grows past the last sweep size.
type TTL[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	m       map[string]entry[T]
	sweepAt int
	now     func() time.Time
}

func New[T any](ttl time.Duration) *TTL[T] {
	return &TTL[T]{ttl: ttl, m: make(map[string]entry[T]), sweepAt: 64, now: time.Now}
}

func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	ent, ok := c.m[key]
	if !ok {
		return zero, false
	}
	if c.now().After(ent.exp) {
		delete(c.m, key)
		return zero, false
	}
	return ent.val, true
}

func (c *TTL[T]) Set(key string, val T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.m[key] = entry[T]{val: val, exp: now.Add(c.ttl)}
	if len(c.m) >= c.sweepAt {
		c.sweepLocked(now)
		c.sweepAt = max(64, 2*len(c.m))
	}
}

// GetOrSet returns the live value for key, storing fn's result otherwise.
func (c *TTL[T]) GetOrSet(key string, fn func() T) T {
	if v, ok := c.Get(key); ok {
		return v
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if ent, ok := c.m[key]; ok && !now.After(ent.exp) {
		return ent.val
	}
	v := fn()
	c.m[key] = entry[T]{val: v, exp: now.Add(c.ttl)}
	return v
}

func (c *TTL[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *TTL[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func (c *TTL[T]) sweepLocked(now time.Time) {
	for k, ent := range c.m {
		if now.After(ent.exp) {
			delete(c.m, k)
		}
	}
}
