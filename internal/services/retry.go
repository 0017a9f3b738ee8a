package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the exponential backoff used for external calls.
type RetryPolicy struct {
	Attempts        int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns three attempts starting at 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:        3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Retry runs fn until it succeeds, the attempts are exhausted, or ctx ends.
// Only errors tagged ErrExternalService are retried; anything else is returned
// immediately.
func Retry(ctx context.Context, policy RetryPolicy, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}
	bo := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		bo.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		bo.MaxInterval = policy.MaxInterval
	}
	bo.MaxElapsedTime = 0

	op := func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(Wrap(ErrCanceled, "", "", "run canceled", ctxErr))
		}
		if !errors.Is(err, ErrExternalService) {
			return backoff.Permanent(err)
		}
		return err
	}

	retries := uint64(policy.Attempts - 1)
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx))
}
