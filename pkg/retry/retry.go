// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package retry runs an operation with bounded attempts and exponential backoff.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 300 * time.Millisecond
)

// 📋 Policy bounds a retry loop
type Policy struct {
	MaxAttempts int           // total attempts, including the first one
	BaseDelay   time.Duration // wait before the second attempt, doubled after each failure
	MaxDelay    time.Duration // optional cap on a single wait, zero means no cap
}

// 🏭 DefaultPolicy returns five attempts starting at 300ms
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Delay returns the wait that follows the failure with the given zero-based index.
// Without MaxDelay the wait saturates at the largest time.Duration.
func (p Policy) Delay(failure int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < failure; i++ {
		if d > math.MaxInt64/2 {
			if p.MaxDelay > 0 {
				return p.MaxDelay
			}
			return time.Duration(math.MaxInt64)
		}
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// 📊 Attempt describes a failed attempt that is about to be retried
type Attempt struct {
	Number  int           // 1-based number of the attempt that failed
	Err     error         // error returned by that attempt
	Delay   time.Duration // wait before the next attempt
	Elapsed time.Duration // total time spent waiting so far, including Delay
}

// Observer is notified before every backoff wait.
type Observer func(Attempt)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type options struct {
	observer Observer
	sleep    Sleeper
}

// Option configures a single Do call.
type Option func(*options)

// 👀 WithObserver registers a callback for every retried failure
func WithObserver(fn Observer) Option {
	return func(o *options) { o.observer = fn }
}

// ⏱️ WithSleep replaces the timer used between attempts
func WithSleep(fn Sleeper) Option {
	return func(o *options) { o.sleep = fn }
}

func timerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// 🛑 Permanent marks err as not worth retrying; Do returns the unwrapped cause
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// 🔁 Do runs op until it succeeds, returns a permanent error, or the policy is exhausted.
// The error of the final attempt is returned unchanged.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	o := options{sleep: timerSleep}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		zero    T
		elapsed time.Duration
		lastErr error
	)

	maxAttempts := policy.attempts()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		delay := policy.Delay(attempt - 1)
		elapsed += delay

		zerolog.Ctx(ctx).Warn().
			Err(err).
			Int("attempt", attempt).
			Int("remaining", maxAttempts-attempt).
			Dur("delay", delay).
			Msg("retrying")

		if o.observer != nil {
			o.observer(Attempt{Number: attempt, Err: err, Delay: delay, Elapsed: elapsed})
		}

		if serr := o.sleep(ctx, delay); serr != nil {
			return zero, errors.Errorf("retry aborted after attempt %d: %w", attempt, errors.Join(serr, lastErr))
		}
	}

	return zero, lastErr
}

// Run is Do for operations without a result.
func Run(ctx context.Context, policy Policy, op func(ctx context.Context) error, opts ...Option) error {
	_, err := Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts...)
	return err
}
