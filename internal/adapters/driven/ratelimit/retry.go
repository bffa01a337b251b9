package ratelimit

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/custodia-labs/tread-cli/internal/logger"
)

// Policy bounds the retry behaviour for one external call.
type Policy struct {
	// MaxAttempts is the total number of tries, first attempt included.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry; each further
	// retry doubles it.
	InitialBackoff time.Duration
}

// DefaultPolicy retries three times after the initial attempt.
var DefaultPolicy = Policy{MaxAttempts: 4, InitialBackoff: 500 * time.Millisecond}

// transientError marks an error as retryable.
type transientError struct {
	cause error
}

func (e *transientError) Error() string { return e.cause.Error() }

func (e *transientError) Unwrap() error { return e.cause }

// Transient wraps an error so Do retries it. Adapters wrap timeouts,
// rate-limit responses and 5xx statuses; validation and auth failures
// stay permanent.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{cause: err}
}

// IsTransient reports whether err is retryable. Network timeouts are
// transient even when not explicitly wrapped.
func IsTransient(err error) bool {
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Do invokes call until it succeeds, fails permanently, or the attempt
// budget runs out. It returns the number of attempts made and the last
// error. The caller's context cancels the wait between attempts; the
// call itself is expected to carry its own per-request timeout.
func Do(ctx context.Context, p Policy, call func(ctx context.Context) error) (int, error) {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = DefaultPolicy.InitialBackoff
	}

	var err error
	backoff := p.InitialBackoff

	for attempt := 1; ; attempt++ {
		err = call(ctx)
		if err == nil {
			return attempt, nil
		}
		if !IsTransient(err) || attempt == p.MaxAttempts {
			return attempt, err
		}
		if ctx.Err() != nil {
			return attempt, err
		}

		logger.Debug("Transient failure (attempt %d/%d), retrying in %s: %v",
			attempt, p.MaxAttempts, backoff, err)

		select {
		case <-ctx.Done():
			return attempt, err
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
