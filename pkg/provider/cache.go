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

package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/loyalty/pkg/state"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTTL         = 30 * 24 * time.Hour
	DefaultConcurrency = 8
)

// 🖼️ LogoEmbedder inlines a logo URL
type LogoEmbedder interface {
	Embed(ctx context.Context, url string) (string, error)
}

// 🔧 Options configures a Cache
type Options struct {
	Store       *state.Store
	Fetcher     Fetcher
	Logos       LogoEmbedder // optional
	TTL         time.Duration
	Concurrency int
	Now         func() time.Time
}

// 💾 Cache serves the provider catalog from disk while it is fresh
//
// A stale or missing catalog is fetched in full, every record is written, and
// only then is the metadata index replaced.
type Cache struct {
	store       *state.Store
	fetcher     Fetcher
	logos       LogoEmbedder
	ttl         time.Duration
	concurrency int
	now         func() time.Time
}

// 🏭 NewCache creates a new cache with the given options
func NewCache(opts Options) (*Cache, error) {
	if opts.Store == nil {
		return nil, errors.Errorf("store is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.Errorf("fetcher is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		store:       opts.Store,
		fetcher:     opts.Fetcher,
		logos:       opts.Logos,
		ttl:         opts.TTL,
		concurrency: opts.Concurrency,
		now:         opts.Now,
	}, nil
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Store returns the backing store.
func (c *Cache) Store() *state.Store { return c.store }

// 🎯 Providers returns the catalog filtered to country
//
// A fresh catalog is read from disk with no network call unless ignoreCache is
// set. A failed fetch is returned as is; stale data is never served instead.
func (c *Cache) Providers(ctx context.Context, country string, ignoreCache bool) ([]Provider, error) {
	if !ignoreCache {
		if list, ok := c.load(ctx); ok {
			return FilterMarket(list, country), nil
		}
	}

	list, err := c.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return FilterMarket(list, country), nil
}

// load reads a fresh catalog from disk; ok is false on any index problem
func (c *Cache) load(ctx context.Context) ([]Provider, bool) {
	logger := zerolog.Ctx(ctx)

	md, err := c.store.LoadMetadata(ctx)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			logger.Debug().Msg("no provider metadata, fetching")
		} else {
			logger.Warn().Err(err).Msg("provider metadata unreadable, fetching")
		}
		return nil, false
	}

	now := c.now()
	if !md.Fresh(now, c.ttl) {
		logger.Debug().Dur("age", md.Age(now)).Dur("ttl", c.ttl).Msg("provider cache stale, fetching")
		return nil, false
	}

	found := make([]*Provider, len(md.Providers))
	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)
	for i, e := range md.Providers {
		g.Go(func() error {
			var p Provider
			if err := c.store.ReadRecord(ctx, e.ProviderID, &p); err != nil {
				logger.Warn().Err(err).Str("provider", e.ProviderID).Msg("dropping unreadable provider record")
				return nil
			}
			found[i] = &p
			return nil
		})
	}
	_ = g.Wait()

	list := make([]Provider, 0, len(found))
	for _, p := range found {
		if p != nil {
			list = append(list, *p)
		}
	}

	logger.Debug().Int("providers", len(list)).Int("indexed", len(md.Providers)).Msg("provider cache hit")
	return list, true
}

// 🔄 Refresh fetches the whole catalog and rewrites the cache
//
// Logo failures keep the remote URL. Record write failures are logged and the
// record is left out of the index. Repeated ids keep their first occurrence.
func (c *Cache) Refresh(ctx context.Context) ([]Provider, error) {
	logger := zerolog.Ctx(ctx)

	list, err := c.fetcher.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("providers", len(list)).Msg("provider catalog fetched")
	list = uniqueByID(ctx, list)

	saved := make([]bool, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range list {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := &list[i]
			c.embedLogo(gctx, p)

			if err := c.store.WriteRecord(gctx, p.ID, p); err != nil {
				logger.Warn().Err(err).Str("provider", p.ID).Msg("provider record not saved")
				return nil
			}
			saved[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Errorf("saving providers: %w", err)
	}

	now := c.now()
	md := &state.Metadata{LastFetchedAt: now, Providers: make([]state.Entry, 0, len(list))}
	for i, p := range list {
		if !saved[i] {
			continue
		}
		md.Providers = append(md.Providers, state.Entry{
			ProviderID:  p.ID,
			LastUpdated: now,
			HasLogo:     p.Visual.LogoURL != "",
		})
	}

	if err := c.store.SaveMetadata(ctx, md); err != nil {
		// the fetched catalog is still valid, the next call refetches
		logger.Error().Err(err).Msg("provider metadata not saved")
	}

	logger.Info().Int("providers", len(list)).Int("saved", len(md.Providers)).Msg("provider cache refreshed")
	return list, nil
}

// uniqueByID keeps the first provider for every id
func uniqueByID(ctx context.Context, list []Provider) []Provider {
	seen := make(map[string]struct{}, len(list))
	out := list[:0]
	for _, p := range list {
		if _, dup := seen[p.ID]; dup {
			zerolog.Ctx(ctx).Warn().Str("provider", p.ID).Msg("skipping duplicate provider id")
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (c *Cache) embedLogo(ctx context.Context, p *Provider) {
	if c.logos == nil || p.Visual.LogoURL == "" || p.HasEmbeddedLogo() {
		return
	}
	uri, err := c.logos.Embed(ctx, p.Visual.LogoURL)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("provider", p.ID).Msg("keeping remote logo url")
		return
	}
	p.Visual.LogoURL = uri
}
