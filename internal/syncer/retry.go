// internal/syncer/retry.go
package syncer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	custom_errors "github-repo-explorer/internal/errors"
)

// RetryPolicy controls how failed reads are retried. Mutations are never retried.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryPolicy retries up to 3 times, waiting 1s, 2s, 4s... capped at 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
	}
}

func (p RetryPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	exp := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialInterval,
		RandomizationFactor: 0,
		Multiplier:          multiplier,
		MaxInterval:         p.MaxInterval,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, p.MaxRetries), ctx)
}

// withRetry runs fn, retrying only errors the taxonomy marks retryable.
// The last error is returned once retries are exhausted.
func withRetry[T any](ctx context.Context, s *Syncer, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0
	operation := func() (T, error) {
		attempt++
		v, err := fn(ctx)
		if err != nil && !custom_errors.IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, next time.Duration) {
		s.logger.Warn("Read failed, retrying", "op", op, "attempt", attempt, "backoff", next.String(), "error", err)
	}
	return backoff.RetryNotifyWithData(operation, s.retry.newBackOff(ctx), notify)
}
