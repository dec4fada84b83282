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
	"time"

	"github.com/walteh/loyalty/pkg/cards"
	"github.com/walteh/loyalty/pkg/provider"
	"github.com/walteh/loyalty/pkg/state"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Operation is one unit of work the CLI runs
type Operation interface {
	// Name identifies the operation in logs and errors
	Name() string
	// Execute runs the operation, printing through the console logger in ctx
	Execute(ctx context.Context) error
}

// 📚 Catalog serves the provider catalog
type Catalog interface {
	// Providers returns the catalog for a market, from disk when fresh
	Providers(ctx context.Context, country string, ignoreCache bool) ([]provider.Provider, error)
	// Refresh refetches and persists the whole catalog
	Refresh(ctx context.Context) ([]provider.Provider, error)
}

// 📥 CardImporter fetches the wallet's cards from upstream
type CardImporter interface {
	Import(ctx context.Context) ([]cards.Card, error)
}

// 🔧 Options holds the collaborators shared by every operation
//
// Each operation checks only the fields it needs.
type Options struct {
	Catalog  Catalog
	Importer CardImporter
	Cards    cards.Store  // optional, local card store
	Cache    *state.Store // on-disk catalog
	TTL      time.Duration
	Now      func() time.Time
}

// BaseOperation carries the shared options
type BaseOperation struct {
	Options
}

// NewBaseOperation fills defaults.
func NewBaseOperation(opts Options) BaseOperation {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TTL <= 0 {
		opts.TTL = provider.DefaultTTL
	}
	return BaseOperation{Options: opts}
}

func (b *BaseOperation) requireCatalog() error {
	if b.Catalog == nil {
		return errors.Errorf("catalog is required")
	}
	return nil
}

func (b *BaseOperation) requireCache() error {
	if b.Cache == nil {
		return errors.Errorf("cache store is required")
	}
	return nil
}
