package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")
var errFatal = errors.New("fatal")

func recordingSleep(waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	var waits []time.Duration
	calls := 0
	p := Policy{MaxAttempts: 3, Backoff: Fixed(2 * time.Second), Sleep: recordingSleep(&waits)}

	err := Do(context.Background(), p, func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, waits)
}

func TestDoExhausted(t *testing.T) {
	var waits []time.Duration
	calls := 0
	p := Policy{MaxAttempts: 3, Backoff: Fixed(time.Second), Sleep: recordingSleep(&waits)}

	err := Do(context.Background(), p, func(context.Context) error {
		calls++
		return errTransient
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExhausted))
	assert.True(t, errors.Is(err, errTransient))
	assert.Equal(t, 3, calls)
	assert.Len(t, waits, 2, "no wait after the last attempt")
}

func TestDoAbortSkipsRetries(t *testing.T) {
	var waits []time.Duration
	calls := 0
	p := Policy{
		MaxAttempts: 3,
		Backoff:     Fixed(time.Second),
		Sleep:       recordingSleep(&waits),
		Classify: func(err error) Decision {
			if errors.Is(err, errFatal) {
				return Abort
			}
			return Retry
		},
	}

	err := Do(context.Background(), p, func(context.Context) error {
		calls++
		return errFatal
	})

	assert.Same(t, errFatal, err)
	assert.False(t, errors.Is(err, ErrExhausted))
	assert.Equal(t, 1, calls)
	assert.Empty(t, waits)
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Do(ctx, Policy{MaxAttempts: 5}, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoubling(t *testing.T) {
	b := Doubling(500 * time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, b(1))
	assert.Equal(t, time.Second, b(2))
	assert.Equal(t, 2*time.Second, b(3))
}

func TestOnRetryReportsAttempts(t *testing.T) {
	var seen []int
	p := Policy{
		MaxAttempts: 3,
		OnRetry:     func(attempt int, _ error, _ time.Duration) { seen = append(seen, attempt) },
	}

	_ = Do(context.Background(), p, func(context.Context) error { return errTransient })

	assert.Equal(t, []int{1, 2}, seen)
}
