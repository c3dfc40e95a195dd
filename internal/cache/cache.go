// Package cache provides a lazily computed single value with optional
// time-based expiry and explicit invalidation.
package cache

import (
	"sync"
	"time"
)

// Value caches the result of a compute function. The entry carries its
// computation time and TTL explicitly; Get recomputes after expiry or
// Invalidate. Safe for concurrent use.
type Value[T any] struct {
	mu         sync.Mutex
	compute    func() (T, error)
	ttl        time.Duration
	value      T
	computedAt time.Time
	valid      bool

	now func() time.Time // test hook
}

// NewValue creates a cached value. A zero or negative ttl never expires;
// the value is still recomputed after Invalidate.
func NewValue[T any](ttl time.Duration, compute func() (T, error)) *Value[T] {
	return &Value[T]{compute: compute, ttl: ttl, now: time.Now}
}

// Get returns the cached value, computing it on first use and after expiry
// or invalidation. A compute error is returned without caching, so the
// next Get retries.
func (v *Value[T]) Get() (T, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.valid && (v.ttl <= 0 || v.now().Sub(v.computedAt) < v.ttl) {
		return v.value, nil
	}

	val, err := v.compute()
	if err != nil {
		var zero T
		return zero, err
	}
	v.value = val
	v.computedAt = v.now()
	v.valid = true
	return val, nil
}

// Invalidate drops the cached value; the next Get recomputes.
func (v *Value[T]) Invalidate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.valid = false
	var zero T
	v.value = zero
}
