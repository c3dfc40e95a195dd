package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

// failNTimes returns a function failing n times before succeeding, plus a
// pointer to its call count.
func failNTimes(n int, value string) (func() (string, error), *int) {
	calls := 0
	return func() (string, error) {
		calls++
		if calls <= n {
			return "", errFlaky
		}
		return value, nil
	}, &calls
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	fn, calls := failNTimes(2, "ok")

	v, err := Do(fn, Options{MaxRetries: 3, sleep: func(time.Duration) {}})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, *calls, "two retries means three total calls")
}

func TestDo_ExhaustionPropagatesLastError(t *testing.T) {
	calls := 0
	fn := func() (int, error) {
		calls++
		return 0, errFlaky
	}

	_, err := Do(fn, Options{MaxRetries: 3, sleep: func(time.Duration) {}})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 4, calls, "max retries plus the initial attempt")
}

func TestDo_ZeroOptionsSingleAttempt(t *testing.T) {
	calls := 0
	fn := func() (int, error) {
		calls++
		return 0, errFlaky
	}

	_, err := Do(fn, Options{})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestDo_NonRetryableFailsFast(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	fn := func() (int, error) {
		calls++
		return 0, fatal
	}

	_, err := Do(fn, Options{
		MaxRetries: 5,
		Retryable:  func(err error) bool { return errors.Is(err, errFlaky) },
		sleep:      func(time.Duration) {},
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDo_MaxDurationBudget(t *testing.T) {
	fn, calls := failNTimes(100, "never")

	clock := time.Unix(0, 0)
	opts := Options{
		MaxRetries:  -1,
		MaxDuration: time.Second,
		Interval:    300 * time.Millisecond,
		now:         func() time.Time { return clock },
		sleep:       func(d time.Duration) { clock = clock.Add(d) },
	}

	_, err := Do(fn, opts)
	assert.ErrorIs(t, err, errFlaky)
	// Attempts at t=0, 300ms, 600ms, 900ms; the next sleep would cross the
	// one second budget.
	assert.Equal(t, 4, *calls)
}

func TestDo_SleepsBetweenAttempts(t *testing.T) {
	fn, _ := failNTimes(2, "ok")
	var slept []time.Duration

	_, err := Do(fn, Options{
		MaxRetries: 3,
		Interval:   50 * time.Millisecond,
		sleep:      func(d time.Duration) { slept = append(slept, d) },
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 50 * time.Millisecond}, slept)
}

func TestRun(t *testing.T) {
	calls := 0
	err := Run(func() error {
		calls++
		if calls < 2 {
			return errFlaky
		}
		return nil
	}, Options{MaxRetries: 2, sleep: func(time.Duration) {}})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
