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

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/loyalty/pkg/config"
	"github.com/walteh/loyalty/pkg/flight"
	"github.com/walteh/loyalty/pkg/retry"
	"gitlab.com/tozd/go/errors"
)

// 🎟️ Token is a bearer access token with its absolute expiry
type Token struct {
	AccessToken  string
	RefreshToken string // rotated refresh token, empty when the upstream did not send one
	ExpiresAt    time.Time
}

// Usable reports whether the token may be handed out at now.
func (t Token) Usable(now time.Time, margin time.Duration) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt.Add(-margin))
}

// ⚠️ Error reports a failed refresh; the cached token has already been revoked
type Error struct {
	Region string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("refreshing %s access token: %v", e.Region, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// 🗝️ SecretSource provides the long-lived refresh secret
type SecretSource interface {
	RefreshToken(ctx context.Context) (string, error)
}

// 🔧 Options configures a Manager
type Options struct {
	HTTPClient    *http.Client
	AuthURL       string
	RedirectURI   string
	ClientIDs     map[string]string
	DefaultRegion string
	SafetyMargin  time.Duration
	Retry         retry.Policy
	Secrets       SecretSource

	// SkipRefreshRetry limits every refresh to a single attempt.
	SkipRefreshRetry bool

	// Now replaces the wall clock; nil means time.Now.
	Now func() time.Time
	// RetryOptions are passed to every retried refresh.
	RetryOptions []retry.Option
}

// 🏭 OptionsFromSettings fills Options from validated settings
func OptionsFromSettings(s *config.Settings, secrets SecretSource) Options {
	return Options{
		HTTPClient:    &http.Client{Timeout: s.HTTPTimeout},
		AuthURL:       s.AuthURL,
		RedirectURI:   s.RedirectURI,
		ClientIDs:     s.ClientIDs,
		DefaultRegion: s.DefaultRegion,
		SafetyMargin:  s.SafetyMargin,
		Retry:         s.Retry,
		Secrets:       secrets,

		SkipRefreshRetry: !s.RetryRefresh,
	}
}

// 🔑 Manager owns the access token and serializes refreshes
//
// At most one refresh is outstanding at any time. Callers that arrive while
// it runs wait for it and receive the same token.
type Manager struct {
	opts Options
	now  func() time.Time

	mu         sync.Mutex
	token      Token
	generation uint64

	slot flight.Slot[Token]
}

// 🏭 New creates a new manager with the given options
func New(opts Options) (*Manager, error) {
	if opts.Secrets == nil {
		return nil, errors.Errorf("secret source is required")
	}
	if opts.AuthURL == "" {
		return nil, errors.Errorf("auth url is required")
	}
	if len(opts.ClientIDs) == 0 {
		return nil, errors.Errorf("at least one client id is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.DefaultRegion == "" {
		opts.DefaultRegion = config.DefaultRegion
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultPolicy()
	}
	if opts.SkipRefreshRetry {
		opts.Retry.MaxAttempts = 1
	}
	opts.AuthURL = strings.TrimRight(opts.AuthURL, "/")

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{opts: opts, now: now}, nil
}

// 🎫 Token returns a usable access token for region, refreshing when needed
//
// A cached token outside the safety margin is returned without I/O. An empty
// region selects the default one.
func (m *Manager) Token(ctx context.Context, region string) (string, error) {
	region, clientID, err := m.client(region)
	if err != nil {
		return "", err
	}

	if tok, ok := m.cached(); ok {
		return tok.AccessToken, nil
	}

	tok, shared, err := m.slot.Do(ctx, func(ctx context.Context) (Token, error) {
		// a refresh that finished between our check and joining the slot is reused
		if tok, ok := m.cached(); ok {
			return tok, nil
		}
		return m.refresh(ctx, region, clientID)
	})
	if err != nil {
		return "", err
	}

	zerolog.Ctx(ctx).Trace().Bool("shared", shared).Msg("access token obtained")
	return tok.AccessToken, nil
}

// 🧹 Revoke drops the cached token and the pending refresh handle
//
// A refresh already running still answers the callers that joined it, but its
// token is not installed.
func (m *Manager) Revoke() {
	m.mu.Lock()
	m.token = Token{}
	m.generation++
	m.mu.Unlock()

	m.slot.Forget()
}

// Current returns a copy of the cached token, if one is usable.
func (m *Manager) Current() (Token, bool) {
	return m.cached()
}

// Refreshing reports whether a refresh is in flight.
func (m *Manager) Refreshing() bool {
	return m.slot.InFlight()
}

func (m *Manager) cached() (Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token.Usable(m.now(), m.opts.SafetyMargin) {
		return m.token, true
	}
	return Token{}, false
}

func (m *Manager) client(region string) (string, string, error) {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = m.opts.DefaultRegion
	}
	id, ok := m.opts.ClientIDs[region]
	if !ok || id == "" {
		return "", "", &config.Error{Key: "region", Reason: fmt.Sprintf("unknown region %q", region)}
	}
	return region, id, nil
}

func (m *Manager) refresh(ctx context.Context, region, clientID string) (Token, error) {
	logger := zerolog.Ctx(ctx)

	m.mu.Lock()
	gen := m.generation
	rotated := m.token.RefreshToken
	m.mu.Unlock()

	secret := rotated
	if secret == "" {
		s, err := m.opts.Secrets.RefreshToken(ctx)
		if err != nil {
			m.Revoke()
			return Token{}, errors.Errorf("resolving refresh token: %w", err)
		}
		secret = s
	}

	logger.Debug().Str("region", region).Bool("rotated", rotated != "").Msg("refreshing access token")

	resp, err := retry.Do(ctx, m.opts.Retry, func(ctx context.Context) (*refreshResponse, error) {
		return m.exchange(ctx, clientID, secret)
	}, m.opts.RetryOptions...)
	if err != nil {
		m.Revoke()
		logger.Warn().Err(err).Str("region", region).Msg("access token refresh failed")
		return Token{}, &Error{Region: region, Err: err}
	}

	tok := m.tokenFrom(ctx, resp)
	if tok.RefreshToken == "" {
		tok.RefreshToken = rotated
	}

	m.mu.Lock()
	if m.generation == gen {
		m.token = tok
	} else {
		logger.Debug().Msg("token revoked during refresh, not caching")
	}
	m.mu.Unlock()

	logger.Info().Str("region", region).Time("expires_at", tok.ExpiresAt).Msg("access token refreshed")
	return tok, nil
}

func (m *Manager) tokenFrom(ctx context.Context, resp *refreshResponse) Token {
	now := m.now()
	tok := Token{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}

	switch {
	case resp.ExpiresIn != nil:
		tok.ExpiresAt = now.Add(time.Duration(*resp.ExpiresIn * float64(time.Second)))
	default:
		if exp, ok := jwtExpiry(resp.AccessToken); ok {
			tok.ExpiresAt = exp
		} else {
			// usable by the callers of this refresh only
			zerolog.Ctx(ctx).Warn().Msg("refresh response has no expiry, token will not be cached")
			tok.ExpiresAt = now
		}
	}
	return tok
}
