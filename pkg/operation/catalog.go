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
	"strings"

	"github.com/walteh/loyalty/pkg/log"
	"github.com/walteh/loyalty/pkg/provider"
	"gitlab.com/tozd/go/errors"
)

// 📋 ProvidersParams selects the catalog to list
type ProvidersParams struct {
	Country     string
	IgnoreCache bool
	Refresh     bool // refetch everything before listing
}

// 📚 ProvidersOperation lists the catalog for a market
type ProvidersOperation struct {
	BaseOperation
	params ProvidersParams

	Result []provider.Provider
}

// NewProvidersOperation lists providers.
func NewProvidersOperation(opts Options, params ProvidersParams) *ProvidersOperation {
	return &ProvidersOperation{BaseOperation: NewBaseOperation(opts), params: params}
}

func (op *ProvidersOperation) Name() string { return "providers" }

func (op *ProvidersOperation) Execute(ctx context.Context) error {
	if err := op.requireCatalog(); err != nil {
		return err
	}
	console := log.FromContext(ctx)

	var (
		list []provider.Provider
		err  error
	)
	if op.params.Refresh {
		list, err = op.Catalog.Refresh(ctx)
		if err == nil {
			list = provider.FilterMarket(list, op.params.Country)
		}
	} else {
		list, err = op.Catalog.Providers(ctx, op.params.Country, op.params.IgnoreCache)
	}
	if err != nil {
		return errors.Errorf("loading providers: %w", err)
	}

	console.StartSection(ctx, log.Section{Title: "catalog", Detail: strings.ToUpper(op.params.Country)})
	for _, p := range list {
		console.LogProvider(ctx, log.ProviderLine{ID: p.ID, Name: p.Name, Markets: p.Markets, HasLogo: p.HasEmbeddedLogo()})
	}
	n := console.EndSection(ctx)
	console.Successf("%d providers", n)

	op.Result = list
	return nil
}

// 🔍 SearchParams is a catalog query
type SearchParams struct {
	Query   string
	Country string
}

// SearchOperation ranks the catalog of a market against a query
type SearchOperation struct {
	BaseOperation
	params SearchParams

	Result []provider.Result
}

// NewSearchOperation searches providers.
func NewSearchOperation(opts Options, params SearchParams) *SearchOperation {
	return &SearchOperation{BaseOperation: NewBaseOperation(opts), params: params}
}

func (op *SearchOperation) Name() string { return "search" }

func (op *SearchOperation) Execute(ctx context.Context) error {
	if err := op.requireCatalog(); err != nil {
		return err
	}
	console := log.FromContext(ctx)

	list, err := op.Catalog.Providers(ctx, op.params.Country, false)
	if err != nil {
		return errors.Errorf("loading providers: %w", err)
	}

	op.Result = provider.Search(list, op.params.Query)

	console.StartSection(ctx, log.Section{Title: "search", Detail: op.params.Query})
	for _, r := range op.Result {
		console.LogProvider(ctx, log.ProviderLine{
			ID:      r.ID,
			Name:    r.Name,
			Markets: r.Markets,
			Rank:    r.Rank.String(),
			HasLogo: r.HasEmbeddedLogo(),
		})
	}
	if console.EndSection(ctx) == 0 {
		console.Warningf("no provider matches %q", op.params.Query)
	}
	return nil
}
