// Package retry runs an operation under a bounded retry policy. The oracle
// calls and the Brightpearl HTTP client share it.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Decision is what a Policy does with a failed attempt.
type Decision int

const (
	// Retry waits for the backoff delay and tries again, if attempts remain.
	Retry Decision = iota
	// Abort returns the error immediately without further attempts.
	Abort
)

// ErrExhausted matches, via errors.Is, every error returned after the last
// attempt failed with a retryable error.
var ErrExhausted = errors.New("retry: attempts exhausted")

// ExhaustedError carries the last attempt's error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// Policy bounds how an operation is retried.
type Policy struct {
	// MaxAttempts counts the first call. Values below 1 mean one attempt.
	MaxAttempts int
	// Backoff returns the delay after failed attempt n (1-based). Nil means no delay.
	Backoff func(attempt int) time.Duration
	// Classify decides per error. Nil retries every error.
	Classify func(err error) Decision
	// OnRetry, when set, is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Fixed waits d between every pair of attempts.
func Fixed(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// Doubling waits base after the first failure and twice as long after each
// following one.
func Doubling(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
		}
		return d
	}
}

// Do calls fn until it succeeds, the classifier aborts, attempts run out, or
// ctx is cancelled. Aborted and context errors are returned as they are;
// running out of attempts returns an *ExhaustedError.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = timerSleep
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if p.Classify != nil && p.Classify(err) == Abort {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if attempt == attempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		if delay > 0 {
			if sleepErr := sleep(ctx, delay); sleepErr != nil {
				return sleepErr
			}
		}
	}
	return &ExhaustedError{Attempts: attempts, Err: err}
}

func timerSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
