package errors

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/randalmurphal/linkedlist/pkg/linkedlist/config"
)

// ErrInvalidRetryConfig indicates retry settings that cannot be used.
var ErrInvalidRetryConfig = errors.New("invalid retry config")

// RetryConfig controls how an operation is re-attempted.
//
// Backoff before attempt n+1 is InitialBackoff * BackoffFactor^(n-1), capped
// at MaxBackoff when MaxBackoff is positive, then spread by Jitter.
type RetryConfig struct {
	// MaxAttempts counts the first call. Values below 1 mean a single call.
	MaxAttempts int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// BackoffFactor below 1 keeps the backoff constant.
	BackoffFactor float64

	// Jitter spreads each backoff by up to ±Jitter of its length (0.0-1.0).
	Jitter float64

	// RetryableFunc replaces IsRetryable when set.
	RetryableFunc func(error) bool

	// OnRetry, when set, is called after a failed attempt that will be
	// retried, before sleeping.
	OnRetry func(RetryEvent)
}

// RetryEvent describes a failed attempt that is about to be retried.
type RetryEvent struct {
	Attempt  int
	Err      error
	Category Category
	Backoff  time.Duration
}

// DefaultRetry rides out short allocation outages: three calls, 5ms doubling
// to at most 100ms.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 5 * time.Millisecond,
	MaxBackoff:     100 * time.Millisecond,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// ImmediateRetry makes three calls without sleeping. It suits failures that
// clear on their own, such as a single injected allocation failure.
var ImmediateRetry = RetryConfig{
	MaxAttempts: 3,
}

// NoRetry makes exactly one call.
var NoRetry = RetryConfig{
	MaxAttempts: 1,
}

// RetryResult is the outcome of WithRetry.
type RetryResult[T any] struct {
	Value    T
	Err      error // *CategorizedError when non-nil
	Attempts int
	Duration time.Duration
}

// WithRetry calls fn until it succeeds, fails with a non-retryable error, or
// runs out of attempts.
func WithRetry[T any](cfg RetryConfig, fn func() (T, error)) RetryResult[T] {
	return WithRetryContext(context.Background(), cfg, func(context.Context) (T, error) {
		return fn()
	})
}

// WithRetryContext is WithRetry with cancellation. A cancelled ctx stops the
// loop before the next call or during a backoff.
func WithRetryContext[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error)) RetryResult[T] {
	start := time.Now()
	done := func(v T, err error, attempts int) RetryResult[T] {
		return RetryResult[T]{Value: v, Err: err, Attempts: attempts, Duration: time.Since(start)}
	}

	retryable := cfg.RetryableFunc
	if retryable == nil {
		retryable = IsRetryable
	}
	limit := max(cfg.MaxAttempts, 1)

	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return done(zero, &CategorizedError{Err: err, Attempts: attempt - 1, Context: "context cancelled"}, attempt-1)
		}

		v, err := fn(ctx)
		if err == nil {
			return done(v, nil, attempt)
		}

		cat := Categorize(err)
		if !retryable(err) {
			return done(zero, &CategorizedError{Err: err, Category: cat, Attempts: attempt}, attempt)
		}
		if attempt >= limit {
			ce := &CategorizedError{Err: err, Category: cat, Attempts: attempt}
			if limit > 1 {
				ce.Context = "max retries exceeded"
			}
			return done(zero, ce, attempt)
		}

		wait := cfg.backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(RetryEvent{Attempt: attempt, Err: err, Category: cat, Backoff: wait})
		}
		if !sleep(ctx, wait) {
			return done(zero, &CategorizedError{Err: ctx.Err(), Attempts: attempt, Context: "context cancelled during backoff"}, attempt)
		}
	}
}

// backoff returns the pause after the given failed attempt.
func (cfg RetryConfig) backoff(attempt int) time.Duration {
	d := float64(cfg.InitialBackoff)
	if cfg.BackoffFactor > 1 {
		for range attempt - 1 {
			d *= cfg.BackoffFactor
			if cfg.MaxBackoff > 0 && d >= float64(cfg.MaxBackoff) {
				break
			}
		}
	}
	if cfg.MaxBackoff > 0 && d > float64(cfg.MaxBackoff) {
		d = float64(cfg.MaxBackoff)
	}
	if cfg.Jitter > 0 {
		d += d * cfg.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// RetryOption adjusts a RetryConfig built by NewRetryConfig.
type RetryOption func(*RetryConfig)

// WithMaxAttempts sets the number of calls, the first included.
func WithMaxAttempts(n int) RetryOption {
	return func(cfg *RetryConfig) { cfg.MaxAttempts = n }
}

// WithInitialBackoff sets the pause after the first failure.
func WithInitialBackoff(d time.Duration) RetryOption {
	return func(cfg *RetryConfig) { cfg.InitialBackoff = d }
}

// WithMaxBackoff caps the pause.
func WithMaxBackoff(d time.Duration) RetryOption {
	return func(cfg *RetryConfig) { cfg.MaxBackoff = d }
}

// WithBackoffFactor sets the growth of the pause per attempt.
func WithBackoffFactor(f float64) RetryOption {
	return func(cfg *RetryConfig) { cfg.BackoffFactor = f }
}

// WithJitter sets the jitter fraction.
func WithJitter(j float64) RetryOption {
	return func(cfg *RetryConfig) { cfg.Jitter = j }
}

// WithRetryableFunc replaces the retryability check.
func WithRetryableFunc(fn func(error) bool) RetryOption {
	return func(cfg *RetryConfig) { cfg.RetryableFunc = fn }
}

// WithRetryOn retries errors of the given categories instead of only
// allocation failures.
func WithRetryOn(categories ...Category) RetryOption {
	return WithRetryableFunc(func(err error) bool {
		return slices.Contains(categories, Categorize(err))
	})
}

// NewRetryConfig starts from DefaultRetry and applies opts.
func NewRetryConfig(opts ...RetryOption) RetryConfig {
	cfg := DefaultRetry
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// RetryFromConfig builds a RetryConfig from settings such as a workload
// script's retry section. Missing keys keep the DefaultRetry values.
//
//	max_attempts:    calls including the first (>= 1)
//	initial_backoff: duration string or milliseconds
//	max_backoff:     duration string or milliseconds
//	backoff_factor:  growth per attempt (>= 1)
//	jitter:          0.0-1.0
//	retry_on:        category names to retry (default [allocation])
func RetryFromConfig(c config.Config) (RetryConfig, error) {
	var opts []RetryOption

	if c.Has("max_attempts") {
		n := c.Int("max_attempts", 0)
		if n < 1 {
			return RetryConfig{}, fmt.Errorf("%w: max_attempts must be at least 1", ErrInvalidRetryConfig)
		}
		opts = append(opts, WithMaxAttempts(n))
	}
	if c.Has("initial_backoff") {
		opts = append(opts, WithInitialBackoff(c.Duration("initial_backoff", DefaultRetry.InitialBackoff)))
	}
	if c.Has("max_backoff") {
		opts = append(opts, WithMaxBackoff(c.Duration("max_backoff", DefaultRetry.MaxBackoff)))
	}
	if c.Has("backoff_factor") {
		f := c.Float("backoff_factor", 0)
		if f < 1 {
			return RetryConfig{}, fmt.Errorf("%w: backoff_factor must be at least 1", ErrInvalidRetryConfig)
		}
		opts = append(opts, WithBackoffFactor(f))
	}
	if c.Has("jitter") {
		j := c.Float("jitter", -1)
		if j < 0 || j > 1 {
			return RetryConfig{}, fmt.Errorf("%w: jitter must be within [0, 1]", ErrInvalidRetryConfig)
		}
		opts = append(opts, WithJitter(j))
	}
	if c.Has("retry_on") {
		var cats []Category
		for _, name := range c.Strings("retry_on") {
			cat, ok := ParseCategory(name)
			if !ok {
				return RetryConfig{}, fmt.Errorf("%w: unknown category %q", ErrInvalidRetryConfig, name)
			}
			cats = append(cats, cat)
		}
		opts = append(opts, WithRetryOn(cats...))
	}

	return NewRetryConfig(opts...), nil
}
