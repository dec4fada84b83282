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

// Package flight holds at most one in-flight operation that concurrent callers join.
package flight

import (
	"context"
	"sync/atomic"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/singleflight"
)

const slotKey = "slot"

// 🎰 Slot is either empty or holds one shared in-flight call
//
// The zero value is ready to use.
type Slot[T any] struct {
	group   singleflight.Group
	running atomic.Int32
}

// 🚀 Do starts fn if the slot is empty, otherwise joins the call already in flight.
//
// fn runs on a context detached from the caller's cancellation so that one
// caller giving up does not fail the others; callers still stop waiting when
// their own ctx is done. The slot is empty again once fn returns, whatever the
// outcome. shared reports whether the result was delivered to more than one caller.
func (s *Slot[T]) Do(ctx context.Context, fn func(ctx context.Context) (T, error)) (res T, shared bool, err error) {
	detached := context.WithoutCancel(ctx)

	ch := s.group.DoChan(slotKey, func() (interface{}, error) {
		s.running.Add(1)
		defer s.running.Add(-1)
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, false, errors.Errorf("waiting for in-flight call: %w", ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			var zero T
			return zero, r.Shared, r.Err
		}
		return r.Val.(T), r.Shared, nil
	}
}

// 🧹 Forget empties the slot so the next Do starts a new call
//
// Callers already waiting on the previous call still receive its result.
func (s *Slot[T]) Forget() {
	s.group.Forget(slotKey)
}

// InFlight reports whether a call is currently running.
func (s *Slot[T]) InFlight() bool {
	return s.running.Load() > 0
}
