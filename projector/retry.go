package projector

import (
	"context"
	"errors"
	"time"

	"github.com/jvc-remote/go-jvc/internal/timerpool"
)

// RetryPolicy is a bounded retry loop with a fixed delay between attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, at least 1.
	MaxAttempts int
	// Delay is waited between attempts.
	Delay time.Duration
	// Retryable reports whether an attempt's error is transient.
	Retryable func(error) bool
	// OnRetry, when set, is called before each retry with the attempt number
	// that failed and its error.
	OnRetry func(attempt int, err error)
}

// ErrRetryExhausted is returned by Do when every attempt failed with a
// retryable error. The returned error wraps it and the last attempt's error.
var ErrRetryExhausted = errors.New("jvc: retries exhausted")

// Do calls fn until it succeeds, fails with a non-retryable error, ctx is
// done, or MaxAttempts is reached. It returns the number of attempts made.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) (int, error) {
	maxAttempts := max(p.MaxAttempts, 1)

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if p.OnRetry != nil {
				p.OnRetry(attempt-1, err)
			}
			if serr := timerpool.Sleep(ctx, p.Delay); serr != nil {
				return attempt - 1, errors.Join(serr, err)
			}
		}

		err = fn(attempt)
		if err == nil {
			return attempt, nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return attempt, err
		}
	}

	return maxAttempts, errors.Join(ErrRetryExhausted, err)
}

// isTransient reports whether err is worth another attempt: the projector
// refused the connection, a reply did not arrive in time, or a kept-alive
// connection turned out to be closed. Handshake failures are never transient,
// even when caused by a read timeout.
func isTransient(err error) bool {
	var hsErr *HandshakeError
	if errors.As(err, &hsErr) {
		return false
	}

	return errors.Is(err, ErrConnectionRefused) ||
		errors.Is(err, ErrReadTimeout) ||
		errors.Is(err, ErrConnectionDropped)
}
