// Package retry implements bounded retries with backoff for calls to
// remote dependencies. Only errors explicitly marked transient are
// retried; business rejections and not-found errors surface immediately.
package retry

import (
	"context"
	"errors"
	"time"
)

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// MarkTransient wraps err so Do will retry it. Timeouts and connection
// failures on remote calls should be marked; 4xx-class rejections must not.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// Transient reports whether err was marked retryable.
func Transient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// Policy bounds the number of attempts and spaces them with exponential
// backoff starting at Initial and capped at Max.
type Policy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultPolicy matches the budget the order saga allows a remote call
// before treating the step as failed.
var DefaultPolicy = Policy{Attempts: 3, Initial: 100 * time.Millisecond, Max: 2 * time.Second}

// Do runs fn until it succeeds, returns a non-transient error, or the
// attempt budget is exhausted. The last error is returned unwrapped of
// its transient marker so callers see the underlying cause.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Initial

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !Transient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if p.Max > 0 && delay > p.Max {
			delay = p.Max
		}
	}

	var te *transientError
	if errors.As(err, &te) {
		return te.err
	}
	return err
}
