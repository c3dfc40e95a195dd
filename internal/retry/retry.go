// Package retry provides fixed-interval retries with attempt and
// wall-clock budgets.
package retry

import (
	"time"
)

// Options controls a retry loop. The zero value means a single attempt
// with no sleeping.
type Options struct {
	// MaxRetries is the number of retries after the first attempt, so the
	// function runs at most MaxRetries+1 times. Negative means unlimited
	// (bounded only by MaxDuration).
	MaxRetries int
	// MaxDuration bounds the total wall-clock time across attempts.
	// Zero means unlimited.
	MaxDuration time.Duration
	// Interval is the fixed sleep between attempts.
	Interval time.Duration
	// Retryable filters which errors trigger retries; nil retries all.
	Retryable func(error) bool

	sleep func(time.Duration) // test hook
	now   func() time.Time    // test hook
}

// Do runs fn until it succeeds or the retry budget is exhausted, returning
// the last error unchanged on exhaustion.
func Do[T any](fn func() (T, error), opts Options) (T, error) {
	sleep := opts.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	now := opts.now
	if now == nil {
		now = time.Now
	}

	var deadline time.Time
	if opts.MaxDuration > 0 {
		deadline = now().Add(opts.MaxDuration)
	}

	var last error
	for attempt := 0; ; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		last = err

		if opts.Retryable != nil && !opts.Retryable(err) {
			break
		}
		if opts.MaxRetries >= 0 && attempt >= opts.MaxRetries {
			break
		}
		if !deadline.IsZero() && !now().Add(opts.Interval).Before(deadline) {
			break
		}
		if opts.Interval > 0 {
			sleep(opts.Interval)
		}
	}

	var zero T
	return zero, last
}

// Run is Do for functions with no result.
func Run(fn func() error, opts Options) error {
	_, err := Do(func() (struct{}, error) { return struct{}{}, fn() }, opts)
	return err
}
