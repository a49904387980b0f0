// ABOUTME: Bounded retry with exponential backoff for remote operations
// ABOUTME: Wraps cenkalti/backoff with attempt-numbered diagnostics
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Defaults matching the service's retry contract: three attempts with
// waits of 5s then 10s between them.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 5 * time.Second
)

// Policy bounds the retries of a fallible operation. The wait before
// attempt k+1 is BaseDelay * 2^(k-1).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	log *zap.Logger
}

// New builds a Policy. Zero values fall back to the defaults.
func New(maxAttempts int, baseDelay time.Duration, log *zap.Logger) *Policy {
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay == 0 {
		baseDelay = DefaultBaseDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		log:         log,
	}
}

// Do runs op until it succeeds or MaxAttempts executions have failed,
// waiting exponentially longer between attempts. op is re-invoked fresh
// for every attempt; the error of the final attempt is returned as-is.
// Each failure before the last is logged with the attempt number and the
// computed delay. The wait suspends only the calling goroutine.
func Do[T any](ctx context.Context, p *Policy, name string, op func() (T, error)) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		return zero, fmt.Errorf("retry %s: max attempts must be >= 1, got %d", name, p.MaxAttempts)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = p.BaseDelay << uint(p.MaxAttempts)

	attempt := 0
	operation := func() (T, error) {
		attempt++
		return op()
	}

	notify := func(err error, delay time.Duration) {
		p.log.Warn("operation failed, retrying",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
		backoff.WithNotify(notify))
}
