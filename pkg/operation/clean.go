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

	"github.com/walteh/loyalty/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// 🧹 CleanOperation removes the on-disk catalog
type CleanOperation struct {
	BaseOperation
}

// NewCleanOperation clears the cache.
func NewCleanOperation(opts Options) *CleanOperation {
	return &CleanOperation{BaseOperation: NewBaseOperation(opts)}
}

func (op *CleanOperation) Name() string { return "clean" }

func (op *CleanOperation) Execute(ctx context.Context) error {
	if err := op.requireCache(); err != nil {
		return err
	}

	ids, err := op.Cache.ListRecords(ctx)
	if err != nil {
		return errors.Errorf("listing records: %w", err)
	}
	if err := op.Cache.Clear(ctx); err != nil {
		return errors.Errorf("clearing cache: %w", err)
	}

	log.FromContext(ctx).Successf("removed %d provider records from %s", len(ids), op.Cache.Root())
	return nil
}
