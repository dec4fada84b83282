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
	"encoding/json"
	"strings"

	"github.com/walteh/loyalty/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// InputType is how a card number is captured
type InputType string

const (
	InputBarcodeScanner InputType = "BARCODE_SCANNER"
	InputManual         InputType = "MANUAL"
)

// BarcodeFormat is the symbology a provider prints on its cards
type BarcodeFormat string

const (
	Codabar    BarcodeFormat = "CODABAR"
	Code128    BarcodeFormat = "CODE_128"
	EAN13      BarcodeFormat = "EAN_13"
	Code39     BarcodeFormat = "CODE_39"
	QRCode     BarcodeFormat = "QR_CODE"
	ITF        BarcodeFormat = "ITF"
	UPCA       BarcodeFormat = "UPC_A"
	DataMatrix BarcodeFormat = "DATA_MATRIX"
	PDF417     BarcodeFormat = "PDF_417"
)

// 🎨 Visual holds the branding of a provider
type Visual struct {
	LogoURL string `json:"logo_url,omitempty"` // remote URL, or a data URI once embedded
	Color   string `json:"color,omitempty"`
}

// 🏪 Provider is one loyalty program from the catalog
type Provider struct {
	ID                   string        `json:"provider_id"`
	Name                 string        `json:"provider_name"`
	Markets              []string      `json:"markets"`
	InputType            InputType     `json:"input_type,omitempty"`
	ManualCharset        string        `json:"expected_manual_input_character_set,omitempty"`
	SearchTerms          []string      `json:"search_terms,omitempty"`
	Visual               Visual        `json:"visual"`
	DefaultBarcodeFormat BarcodeFormat `json:"default_barcode_format,omitempty"`
}

// InMarket reports whether the provider is offered in country; an empty country matches all.
func (p Provider) InMarket(country string) bool {
	if country == "" {
		return true
	}
	for _, m := range p.Markets {
		if strings.EqualFold(strings.TrimSpace(m), country) {
			return true
		}
	}
	return false
}

// HasEmbeddedLogo reports whether the logo is stored inline.
func (p Provider) HasEmbeddedLogo() bool {
	return strings.HasPrefix(p.Visual.LogoURL, "data:")
}

// FilterMarket returns the providers offered in country, keeping order.
func FilterMarket(providers []Provider, country string) []Provider {
	country = strings.ToUpper(strings.TrimSpace(country))
	out := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.InMarket(country) {
			out = append(out, p)
		}
	}
	return out
}

// ErrInvalidResponse is returned when the catalog listing has no providers array.
var ErrInvalidResponse = errors.Base("invalid response format")

// 📡 Fetcher returns the complete upstream catalog
type Fetcher interface {
	FetchAll(ctx context.Context) ([]Provider, error)
}

// 🌐 RemoteFetcher reads the catalog through the authenticated client
type RemoteFetcher struct {
	client remote.Doer
	path   string
}

// 🏭 NewRemoteFetcher creates a fetcher for the listing at path
func NewRemoteFetcher(client remote.Doer, path string) *RemoteFetcher {
	return &RemoteFetcher{client: client, path: path}
}

// FetchAll loads every provider in one call.
func (f *RemoteFetcher) FetchAll(ctx context.Context) ([]Provider, error) {
	var resp struct {
		Providers json.RawMessage `json:"providers"`
	}
	if err := f.client.Do(ctx, f.path, remote.RequestOptions{}, &resp); err != nil {
		return nil, errors.Errorf("fetching providers: %w", err)
	}

	raw := strings.TrimSpace(string(resp.Providers))
	if raw == "" || raw == "null" {
		return nil, errors.WithStack(ErrInvalidResponse)
	}

	var providers []Provider
	if err := json.Unmarshal(resp.Providers, &providers); err != nil {
		return nil, errors.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	valid := providers[:0]
	for _, p := range providers {
		if strings.TrimSpace(p.ID) == "" {
			continue
		}
		valid = append(valid, p)
	}
	return valid, nil
}
