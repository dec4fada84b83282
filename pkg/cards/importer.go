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

package cards

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/loyalty/pkg/flight"
	"github.com/walteh/loyalty/pkg/provider"
	"github.com/walteh/loyalty/pkg/remote"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTTL         = 30 * time.Minute
	defaultConcurrency = 8
)

// LogoEmbedder inlines a logo URL
type LogoEmbedder interface {
	Embed(ctx context.Context, url string) (string, error)
}

// barcodeContent accepts the code as a JSON string or number
type barcodeContent string

func (b *barcodeContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = barcodeContent(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Errorf("barcode content is neither string nor number: %w", err)
	}
	*b = barcodeContent(n.String())
	return nil
}

type identifier struct {
	IsCustomCard bool `json:"is_custom_card"`
	Processed    struct {
		ProviderID string          `json:"provider_id"`
		Name       string          `json:"name"`
		Label      string          `json:"label"`
		Visual     provider.Visual `json:"visual"`
		Barcode    struct {
			Format  provider.BarcodeFormat `json:"format"`
			Content barcodeContent         `json:"content"`
		} `json:"barcode"`
	} `json:"processed"`
}

type loyaltyContent struct {
	Identifiers []identifier `json:"loyalty_identifiers"`
}

// 🔧 ImporterOptions configures an Importer
type ImporterOptions struct {
	Client      remote.Doer
	Path        string
	Logos       LogoEmbedder // optional
	TTL         time.Duration
	Concurrency int
	Now         func() time.Time
}

// 📥 Importer maps the wallet's loyalty content into cards
//
// Successful results are kept in memory for the TTL; failures are never cached.
type Importer struct {
	opts ImporterOptions

	mu         sync.Mutex
	cached     []Card
	cachedAt   time.Time
	generation uint64

	slot flight.Slot[[]Card]
}

// 🏭 NewImporter creates a new importer with the given options
func NewImporter(opts ImporterOptions) (*Importer, error) {
	if opts.Client == nil {
		return nil, errors.Errorf("client is required")
	}
	if opts.Path == "" {
		return nil, errors.Errorf("loyalty content path is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Importer{opts: opts}, nil
}

// 🎯 Import returns the wallet's cards in upstream order
func (im *Importer) Import(ctx context.Context) ([]Card, error) {
	if cards, ok := im.fromCache(); ok {
		zerolog.Ctx(ctx).Debug().Int("cards", len(cards)).Msg("imported cards served from memory")
		return cards, nil
	}

	cards, _, err := im.slot.Do(ctx, func(ctx context.Context) ([]Card, error) {
		if cards, ok := im.fromCache(); ok {
			return cards, nil
		}
		im.mu.Lock()
		gen := im.generation
		im.mu.Unlock()
		return im.fetch(ctx, gen)
	})
	if err != nil {
		return nil, err
	}
	return cloneCards(cards), nil
}

// Invalidate drops the in-memory result.
// A fetch already running still answers its callers but is not kept.
func (im *Importer) Invalidate() {
	im.mu.Lock()
	im.cached = nil
	im.cachedAt = time.Time{}
	im.generation++
	im.mu.Unlock()
	im.slot.Forget()
}

func (im *Importer) fromCache() ([]Card, bool) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.cached == nil || im.opts.Now().Sub(im.cachedAt) >= im.opts.TTL {
		return nil, false
	}
	return cloneCards(im.cached), true
}

func (im *Importer) fetch(ctx context.Context, gen uint64) ([]Card, error) {
	logger := zerolog.Ctx(ctx)

	content, err := remote.Request[loyaltyContent](ctx, im.opts.Client, im.opts.Path, remote.RequestOptions{})
	if err != nil {
		return nil, errors.Errorf("fetching loyalty content: %w", err)
	}

	cards := make([]Card, len(content.Identifiers))
	g := new(errgroup.Group)
	g.SetLimit(im.opts.Concurrency)
	for i, id := range content.Identifiers {
		cards[i] = mapIdentifier(id)
		g.Go(func() error {
			cards[i].Logo = im.logo(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	im.mu.Lock()
	if im.generation == gen {
		im.cached = cards
		im.cachedAt = im.opts.Now()
	} else {
		logger.Debug().Msg("import invalidated while in flight, result not kept")
	}
	im.mu.Unlock()

	logger.Info().Int("cards", len(cards)).Msg("loyalty cards imported")
	return cards, nil
}

func (im *Importer) logo(ctx context.Context, id identifier) string {
	url := id.Processed.Visual.LogoURL
	if id.IsCustomCard || url == "" || im.opts.Logos == nil {
		return ""
	}
	uri, err := im.opts.Logos.Embed(ctx, url)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("provider", id.Processed.ProviderID).Msg("card logo not embedded")
		return ""
	}
	return uri
}

func mapIdentifier(id identifier) Card {
	p := id.Processed

	name := p.Name
	if label := strings.TrimSpace(p.Label); label != "" {
		name = fmt.Sprintf("%s (%s)", p.Name, label)
	}

	typ := TypeBarcode
	if p.Barcode.Format == provider.QRCode {
		typ = TypeQR
	}

	return Card{
		ID:       UnsavedID,
		Name:     name,
		Code:     string(p.Barcode.Content),
		Color:    p.Visual.Color,
		Type:     typ,
		Provider: p.ProviderID,
	}
}

func cloneCards(in []Card) []Card {
	if in == nil {
		return nil
	}
	out := make([]Card, len(in))
	copy(out, in)
	return out
}
