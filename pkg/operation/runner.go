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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🏃 Runner executes operations in order or side by side
type Runner struct {
	async bool
	limit int
}

// NewRunner creates a runner; async runs up to limit operations at once (zero means no limit).
func NewRunner(async bool, limit int) *Runner {
	return &Runner{async: async, limit: limit}
}

// Run executes ops and returns the first failure.
//
// In order, the first failure stops the remaining operations. Side by side,
// the first failure cancels the context of the others.
func (r *Runner) Run(ctx context.Context, ops ...Operation) error {
	if r.async {
		return r.runAsync(ctx, ops)
	}
	return r.runSync(ctx, ops)
}

func (r *Runner) runSync(ctx context.Context, ops []Operation) error {
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("operation cancelled: %w", err)
		}
		if err := execute(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runAsync(ctx context.Context, ops []Operation) error {
	g, gctx := errgroup.WithContext(ctx)
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	for _, op := range ops {
		g.Go(func() error {
			return execute(gctx, op)
		})
	}
	return g.Wait()
}

func execute(ctx context.Context, op Operation) error {
	logger := zerolog.Ctx(ctx).With().Str("operation", op.Name()).Logger()
	ctx = logger.WithContext(ctx)

	logger.Debug().Msg("operation started")
	if err := op.Execute(ctx); err != nil {
		return errors.Errorf("%s: %w", op.Name(), err)
	}
	logger.Debug().Msg("operation complete")
	return nil
}
