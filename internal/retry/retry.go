// Package retry wraps calls to external collaborators (Postgres, Redis, the
// blob store) in a uniform bounded backoff. Callers mark transient failures
// with Transient; any other error aborts the loop immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	sretry "github.com/sethvargo/go-retry"
)

// ErrExhausted wraps the last transient error once every attempt has been
// spent. Services translate it into their retryable taxonomy.
var ErrExhausted = errors.New("retry attempts exhausted")

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as safe to retry.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// Do runs fn up to maxAttempts times with exponential backoff starting at
// base. Non-transient errors are returned as-is on the first occurrence.
func Do(ctx context.Context, maxAttempts uint64, base time.Duration, fn func(ctx context.Context) error) error {
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	backoff := sretry.WithJitterPercent(10, sretry.NewExponential(base))

	for attempt := uint64(1); ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var te *transientError
		if !errors.As(err, &te) {
			return err
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("%w: %w", ErrExhausted, te.Unwrap())
		}

		delay, stop := backoff.Next()
		if stop {
			return fmt.Errorf("%w: %w", ErrExhausted, te.Unwrap())
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrExhausted, ctx.Err())
		case <-timer.C:
		}
	}
}
