// Package txn holds the conflict-retry loop shared by the Postgres and
// in-memory stores. A transaction body signals a lost optimistic race by
// returning an error wrapping ErrConflict; Retry then reruns it from scratch.
package txn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	// ErrConflict marks an attempt that lost a race with a concurrent writer.
	ErrConflict = errors.New("write conflict")
	// ErrConflictExhausted is returned once every attempt has conflicted.
	ErrConflictExhausted = errors.New("write conflict retries exhausted")
	// ErrUnavailable marks transport or connectivity failures of the store.
	ErrUnavailable = errors.New("store unavailable")
)

// maxDelaySteps caps how many times the base delay doubles.
const maxDelaySteps = 6

// Policy bounds a retried transaction. Timeout covers all attempts together;
// zero means no deadline beyond the caller's context.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Timeout     time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 5, BaseDelay: 5 * time.Millisecond, Timeout: 10 * time.Second}
}

// NewBackOff returns an exponential schedule starting at base with 50% jitter
// so competing writers do not retry in lockstep. It never gives up on its
// own; callers bound it by attempts or context.
func NewBackOff(base time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	b.MaxInterval = base << maxDelaySteps
	b.MaxElapsedTime = 0
	b.Reset()

	return b
}

// Retry runs fn until it returns nil or a non-conflict error, or until the
// attempt budget is spent.
func Retry(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)

	if p.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var (
		calls int
		last  error
	)

	op := func() error {
		calls++

		last = fn(ctx)
		if last != nil && !errors.Is(last, ErrConflict) {
			return backoff.Permanent(last)
		}

		return last
	}

	schedule := backoff.WithContext(backoff.WithMaxRetries(NewBackOff(p.BaseDelay), uint64(attempts-1)), ctx)

	err := backoff.Retry(op, schedule)
	if err == nil || !errors.Is(last, ErrConflict) {
		return err
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrConflictExhausted, calls, err)
}
