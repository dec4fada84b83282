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
	"github.com/walteh/loyalty/pkg/status"
)

// 📊 StatusOperation reports on the on-disk catalog
type StatusOperation struct {
	BaseOperation
	all bool

	Report *status.Report
}

// NewStatusOperation inspects the cache; all includes healthy records in the output.
func NewStatusOperation(opts Options, all bool) *StatusOperation {
	return &StatusOperation{BaseOperation: NewBaseOperation(opts), all: all}
}

func (op *StatusOperation) Name() string { return "status" }

func (op *StatusOperation) Execute(ctx context.Context) error {
	if err := op.requireCache(); err != nil {
		return err
	}
	console := log.FromContext(ctx)

	report, err := status.Inspect(ctx, op.Cache, op.TTL, op.Now())
	if err != nil {
		return err
	}

	lines := status.Format(report)
	if op.all {
		lines = status.FormatAll(report)
	}
	for _, l := range lines {
		console.Line(l)
	}

	op.Report = report
	return nil
}
