// Package retry wraps calls to flaky collaborators (in practice the identity
// provider) with exponential backoff.
//
// Failures are classified before sleeping: a permanent error (wrapped with
// Permanent, or implementing interface{ Permanent() bool }) aborts the loop
// immediately, so a "not found" from the provider does not burn the whole
// delay budget the way a network blip does.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy controls the retry loop. The zero value is not usable; start from
// DefaultPolicy.
type Policy struct {
	Retries    int           // retries after the first attempt
	Initial    time.Duration // delay before the first retry
	Multiplier int           // delay growth factor between retries
}

// DefaultPolicy is 3 retries starting at 500ms, doubling each time
// (500ms, 1s, 2s, about 3.5s of delay before giving up).
var DefaultPolicy = Policy{Retries: 3, Initial: 500 * time.Millisecond, Multiplier: 2}

// permanentError marks an error that must not be retried.
type permanentError struct{ err error }

func (p *permanentError) Error() string   { return p.err.Error() }
func (p *permanentError) Unwrap() error   { return p.err }
func (p *permanentError) Permanent() bool { return true }

// Permanent wraps err so Do fails fast instead of retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err (or anything it wraps) is marked permanent.
func IsPermanent(err error) bool {
	var p interface{ Permanent() bool }
	return errors.As(err, &p) && p.Permanent()
}

// Do runs fn, retrying per the policy until it succeeds, the budget is
// exhausted, the error is permanent, or ctx is done. The last error is
// returned unwrapped so callers can inspect it.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	delay := p.Initial
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.Retries || IsPermanent(err) {
			return err
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= time.Duration(p.Multiplier)
	}
}
