// Package retryx holds the retry policy applied to every object-store call
// made by the orchestrator. The loop itself is github.com/sethvargo/go-retry;
// this package adds the attempt budget, the backoff schedule and the
// predicate that keeps client-caused errors from being retried.
package retryx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ghostpaste/internal/common"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 100 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
)

// Policy describes how a failing call is retried.
//
// Delays double from BaseDelay and are capped at MaxDelay. Retryable decides
// whether an error is transient; a nil Retryable uses Transient. Use
// RetryAll to retry every error.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool
}

// DefaultPolicy returns 3 attempts with 100ms, 200ms delays capped at 5s.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		Retryable:   retryable,
	}
}

// NoRetry runs each call exactly once.
func NoRetry() Policy {
	return Policy{MaxAttempts: 1}
}

func (p Policy) backoff() retry.Backoff {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	b := retry.NewExponential(base)
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return retry.WithMaxRetries(uint64(attempts-1), b)
}

func (p Policy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if p.Retryable == nil {
		return Transient(err)
	}
	return p.Retryable(err)
}

// Transient reports whether err may go away on retry: any error whose kind
// is not client-caused (see common.Kind.ClientCaused).
func Transient(err error) bool {
	return !common.KindOf(err).ClientCaused()
}

// RetryAll retries every error except context cancellation.
func RetryAll(error) bool { return true }

// Do runs fn under p. Errors rejected by the predicate are returned as is,
// on the first attempt. If every attempt fails with a transient error, the
// last cause is returned wrapped in a KindStorage error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for functions that return a value.
func DoValue[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := 0
	exhausted := false

	v, err := retry.DoValue(ctx, p.backoff(), func(ctx context.Context) (T, error) {
		attempts++
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !p.retryable(err) {
			exhausted = false
			return v, err
		}
		exhausted = true
		return v, retry.RetryableError(err)
	})
	if err == nil {
		return v, nil
	}

	if exhausted && ctx.Err() == nil {
		return v, &common.Error{
			Kind: common.KindStorage,
			Msg:  fmt.Sprintf("retries exhausted after %d attempts", attempts),
			Err:  err,
		}
	}
	return v, err
}
