// Package retry provides an opt-in exponential backoff helper for callers of
// the checkout core.
//
// The core itself never retries: a conflict is surfaced to the caller
// unchanged. Callers that want to absorb serialization aborts under
// contention (such as load generators or request handlers) can wrap their
// calls with this helper. A conflict caused by a genuine precondition
// failure (the book really is checked out) will simply fail again on the
// final attempt and is returned unchanged.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/librarium-io/library-manager-go/library"
)

const (
	defaultMaxAttempts  = 4
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// RetryableFunc represents a function that can be retried.
type RetryableFunc func(ctx context.Context) error

type config struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
}

// Option configures the retry behavior.
type Option func(*config) error

// WithMaxAttempts sets the total number of attempts including the first one.
func WithMaxAttempts(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return ErrInvalidMaxAttempts
		}

		c.maxAttempts = n

		return nil
	}
}

// WithBaseDelay sets the delay before the first retry; each further retry
// doubles it.
func WithBaseDelay(d time.Duration) Option {
	return func(c *config) error {
		if d < 0 {
			return ErrNegativeBaseDelay
		}

		c.baseDelay = d

		return nil
	}
}

// WithJitterFactor sets the random jitter added to each backoff delay as a
// fraction of the delay.
func WithJitterFactor(f float64) Option {
	return func(c *config) error {
		if f < 0.0 || f > 1.0 {
			return ErrInvalidJitterFactor
		}

		c.jitterFactor = f

		return nil
	}
}

// WithExponentialBackoff executes fn, retrying conflict outcomes with
// exponential backoff and jitter up to the configured number of attempts.
//
// Only library.ErrCheckoutConflict is retried, every other error fails fast.
// Context cancellation aborts the backoff wait immediately.
func WithExponentialBackoff(ctx context.Context, fn RetryableFunc, options ...Option) error {
	cfg := &config{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	for _, option := range options {
		if err := option(cfg); err != nil {
			return err
		}
	}

	var lastErr error

	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := cfg.baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * cfg.jitterFactor //nolint:gosec // math/rand is sufficient for jitter
			backoffDelay := delay + time.Duration(jitter)

			select {
			case <-time.After(backoffDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !errors.Is(lastErr, library.ErrCheckoutConflict) {
			return lastErr
		}
	}

	return lastErr
}
