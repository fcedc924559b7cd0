// Package retry provides a bounded exponential-backoff executor for
// idempotent or safe-to-retry outbound operations.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Policy controls how many attempts an operation receives and how long the
// calling unit of work suspends between them. The delay before attempt k+1 is
// BaseDelay * 2^(k-1), capped at MaxDelay. With Jitter enabled each delay is
// drawn uniformly from [0, computed delay].
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

// Option customises the executor during construction.
type Option func(*Executor)

// WithSleep overrides how the executor suspends between attempts. The
// function must return false when the context was cancelled while waiting.
// Intended for tests that need deterministic timing.
func WithSleep(fn func(ctx context.Context, d time.Duration) bool) Option {
	return func(e *Executor) {
		if fn != nil {
			e.sleep = fn
		}
	}
}

// Executor runs operations under a retry policy. Sleeping between attempts
// suspends only the goroutine driving the operation, never the process.
type Executor struct {
	policy Policy
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) bool

	randMu sync.Mutex
	rnd    *rand.Rand
}

// New validates the policy and constructs an Executor.
func New(policy Policy, logger zerolog.Logger, opts ...Option) (*Executor, error) {
	if policy.MaxAttempts < 1 {
		return nil, errors.New("retry: max attempts must be >= 1")
	}
	if policy.BaseDelay < 0 {
		return nil, errors.New("retry: base delay cannot be negative")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	e := &Executor{
		policy: policy,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	e.sleep = e.wait

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	return e, nil
}

// Do runs op until it succeeds, fails terminally, the context is cancelled or
// the attempt budget is spent. Transient failures are the only condition that
// consumes further attempts; anything not wrapped with ErrTransient
// short-circuits. Exhaustion yields a *RetriesExhaustedError.
func Do[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if !errors.Is(err, ErrTransient) {
			return zero, err
		}

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt >= e.policy.MaxAttempts {
			return zero, &RetriesExhaustedError{Attempts: attempt, LastErr: err}
		}

		delay := e.backoff(attempt)
		e.logger.Debug().
			Int("attempt", attempt).
			Dur("backoff", delay).
			Err(err).
			Msg("retry: scheduling next attempt after transient failure")

		if !e.sleep(ctx, delay) {
			return zero, ctx.Err()
		}
	}
}

func (e *Executor) backoff(attempt int) time.Duration {
	if e.policy.BaseDelay <= 0 {
		return 0
	}

	multiplier := math.Pow(2, float64(attempt-1))
	raw := time.Duration(float64(e.policy.BaseDelay) * multiplier)
	if raw <= 0 || (e.policy.MaxDelay > 0 && raw > e.policy.MaxDelay) {
		raw = e.policy.MaxDelay
	}

	if e.policy.Jitter {
		return e.fullJitter(raw)
	}
	return raw
}

func (e *Executor) fullJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	e.randMu.Lock()
	defer e.randMu.Unlock()

	return time.Duration(e.rnd.Int63n(int64(max) + 1))
}

func (e *Executor) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
