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

package operation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// fakeOperation records its executions into a shared journal
type fakeOperation struct {
	name    string
	err     error
	delay   time.Duration
	journal *journal
}

type journal struct {
	mu      sync.Mutex
	order   []string
	running atomic.Int32
	peak    atomic.Int32
}

func (j *journal) record(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.order = append(j.order, name)
}

func (f *fakeOperation) Name() string { return f.name }

func (f *fakeOperation) Execute(ctx context.Context) error {
	n := f.journal.running.Add(1)
	defer f.journal.running.Add(-1)
	for {
		peak := f.journal.peak.Load()
		if n <= peak || f.journal.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			f.journal.record(f.name + ":cancelled")
			return ctx.Err()
		case <-time.After(f.delay):
		}
	}
	f.journal.record(f.name)
	return f.err
}

func TestRunner(t *testing.T) {
	t.Run("sync_runs_in_order", func(t *testing.T) {
		ctx, _ := setupContext(t)
		j := &journal{}

		err := NewRunner(false, 0).Run(ctx,
			&fakeOperation{name: "a", journal: j, delay: 5 * time.Millisecond},
			&fakeOperation{name: "b", journal: j},
			&fakeOperation{name: "c", journal: j},
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, j.order)
		assert.Equal(t, int32(1), j.peak.Load())
	})

	t.Run("sync_stops_at_first_failure", func(t *testing.T) {
		ctx, _ := setupContext(t)
		j := &journal{}
		boom := errors.New("boom")

		err := NewRunner(false, 0).Run(ctx,
			&fakeOperation{name: "a", journal: j, err: boom},
			&fakeOperation{name: "b", journal: j},
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "a: boom")
		assert.Equal(t, []string{"a"}, j.order)
	})

	t.Run("sync_cancelled", func(t *testing.T) {
		ctx, _ := setupContext(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		j := &journal{}
		err := NewRunner(false, 0).Run(cctx, &fakeOperation{name: "a", journal: j})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, j.order)
	})

	t.Run("async_runs_side_by_side", func(t *testing.T) {
		ctx, _ := setupContext(t)
		j := &journal{}

		ops := make([]Operation, 0, 6)
		for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
			ops = append(ops, &fakeOperation{name: name, journal: j, delay: 20 * time.Millisecond})
		}
		require.NoError(t, NewRunner(true, 2).Run(ctx, ops...))

		assert.Len(t, j.order, 6)
		assert.LessOrEqual(t, j.peak.Load(), int32(2), "limit bounds concurrency")
	})

	t.Run("async_failure_cancels_others", func(t *testing.T) {
		ctx, _ := setupContext(t)
		j := &journal{}
		boom := errors.New("boom")

		err := NewRunner(true, 0).Run(ctx,
			&fakeOperation{name: "fails", journal: j, err: boom},
			&fakeOperation{name: "slow", journal: j, delay: time.Minute},
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, j.order, "slow:cancelled")
	})
}
