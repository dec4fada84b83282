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

// Package logo downloads provider logos and embeds them as data URIs.
package logo

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/loyalty/pkg/retry"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultMaxBytes = 2 << 20
	defaultMIME     = "image/png"
)

// 🔧 Options configures an Embedder
type Options struct {
	HTTPClient   *http.Client
	Retry        retry.Policy
	RetryOptions []retry.Option
	MaxBytes     int64
}

// 🖼️ Embedder turns logo URLs into data URIs and remembers the result per URL
type Embedder struct {
	http         *http.Client
	policy       retry.Policy
	retryOptions []retry.Option
	maxBytes     int64

	mu    sync.RWMutex
	memo  map[string]string
	group singleflight.Group
}

// 🏭 New creates a new embedder with the given options
func New(opts Options) *Embedder {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultPolicy()
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	return &Embedder{
		http:         opts.HTTPClient,
		policy:       opts.Retry,
		retryOptions: opts.RetryOptions,
		maxBytes:     opts.MaxBytes,
		memo:         make(map[string]string),
	}
}

// 🎨 Embed returns data:<mime>;base64,<payload> for the image at rawURL
//
// Values that already are data URIs are returned as is. Concurrent calls for
// the same URL share one download.
func (e *Embedder) Embed(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.Errorf("empty logo url")
	}
	if strings.HasPrefix(rawURL, "data:") {
		return rawURL, nil
	}

	e.mu.RLock()
	uri, ok := e.memo[rawURL]
	e.mu.RUnlock()
	if ok {
		return uri, nil
	}

	v, err, _ := e.group.Do(rawURL, func() (interface{}, error) {
		uri, err := retry.Do(ctx, e.policy, func(ctx context.Context) (string, error) {
			return e.download(ctx, rawURL)
		}, e.retryOptions...)
		if err != nil {
			return "", err
		}

		e.mu.Lock()
		e.memo[rawURL] = uri
		e.mu.Unlock()
		return uri, nil
	})
	if err != nil {
		return "", errors.Errorf("embedding logo %s: %w", rawURL, err)
	}
	return v.(string), nil
}

// Cached returns the memoised data URI for rawURL.
func (e *Embedder) Cached(rawURL string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	uri, ok := e.memo[rawURL]
	return uri, ok
}

func (e *Embedder) download(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", retry.Permanent(errors.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "image/*")

	resp, err := e.http.Do(req)
	if err != nil {
		return "", errors.Errorf("downloading logo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		serr := errors.Errorf("unexpected status code: %d", resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusRequestTimeout {
			return "", serr
		}
		return "", retry.Permanent(serr)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return "", errors.Errorf("reading logo: %w", err)
	}
	if int64(len(data)) > e.maxBytes {
		return "", retry.Permanent(errors.Errorf("logo exceeds %d bytes", e.maxBytes))
	}

	mt := MediaType(resp.Header.Get("Content-Type"), rawURL)
	zerolog.Ctx(ctx).Trace().Str("url", rawURL).Str("mime", mt).Int("bytes", len(data)).Msg("logo downloaded")

	return fmt.Sprintf("data:%s;base64,%s", mt, base64.StdEncoding.EncodeToString(data)), nil
}

// 🏷️ MediaType picks the MIME type of a logo
//
// An image/* Content-Type wins; otherwise the URL extension decides and PNG is
// the fallback.
func MediaType(contentType, rawURL string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}

	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".svg":
		return "image/svg+xml"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return defaultMIME
}
