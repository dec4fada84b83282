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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/loyalty/pkg/retry"
	"gitlab.com/tozd/go/errors"
)

// 🌍 Built-in client identifiers, one per upstream region
var defaultClientIDs = map[string]string{
	"EU": "ca89d7d6-f74e-4c4f-9fa9-a28fd13d4074",
	"US": "639c2886-026e-452f-b5fc-096683d95b0e",
	"AP": "51119b87-8f66-4ef9-973a-60f7034d0a98",
}

const (
	DefaultAuthURL       = "https://app.klarna.com/fr/api/auth"
	DefaultAPIURL        = "https://app.klarna.com/fr/api/consumer_wallet_bff/v1"
	DefaultRedirectURI   = "https://app.klarna.com/auth/callback"
	DefaultProvidersPath = "all-providers"
	DefaultLoyaltyPath   = "loyalty-content"
	DefaultRegion        = "EU"
	DefaultSecretEnv     = "LOYALTY_REFRESH_TOKEN"
	DefaultKeyringName   = "loyalty"
	DefaultKeyringUser   = "refresh-token"

	defaultSafetyMargin = "5m"
	defaultCacheTTL     = "720h"
	defaultCardsTTL     = "30m"
	defaultHTTPTimeout  = "30s"
	defaultConcurrency  = 8
	defaultLogoMaxBytes = 2 << 20
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🌐 UpstreamConfig locates the catalog API
type UpstreamConfig struct {
	AuthURL       string `json:"auth_url,omitempty" yaml:"auth_url,omitempty"`
	APIURL        string `json:"api_url,omitempty" yaml:"api_url,omitempty"`
	RedirectURI   string `json:"redirect_uri,omitempty" yaml:"redirect_uri,omitempty"`
	ProvidersPath string `json:"providers_path,omitempty" yaml:"providers_path,omitempty"`
	LoyaltyPath   string `json:"loyalty_path,omitempty" yaml:"loyalty_path,omitempty"`
}

// 🗺️ RegionConfig overrides the client id of one region
type RegionConfig struct {
	Name     string `json:"name" yaml:"name"`
	ClientID string `json:"client_id" yaml:"client_id"`
}

// 🔑 TokenConfig controls the access-token lifecycle
type TokenConfig struct {
	SafetyMargin     string `json:"safety_margin,omitempty" yaml:"safety_margin,omitempty"`
	SecretEnv        string `json:"secret_env,omitempty" yaml:"secret_env,omitempty"`
	KeyringService   string `json:"keyring_service,omitempty" yaml:"keyring_service,omitempty"`
	KeyringUser      string `json:"keyring_user,omitempty" yaml:"keyring_user,omitempty"`
	SkipRefreshRetry bool   `json:"skip_refresh_retry,omitempty" yaml:"skip_refresh_retry,omitempty"`
}

// 🔁 RetryConfig bounds every retried network call
type RetryConfig struct {
	MaxAttempts int    `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	BaseDelay   string `json:"base_delay,omitempty" yaml:"base_delay,omitempty"`
	MaxDelay    string `json:"max_delay,omitempty" yaml:"max_delay,omitempty"`
}

// 💾 CacheConfig controls the on-disk provider catalog
type CacheConfig struct {
	Root        string `json:"root,omitempty" yaml:"root,omitempty"`
	TTL         string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	Concurrency int    `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

// 🎴 CardsConfig controls the imported-cards response cache
type CardsConfig struct {
	TTL string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// 📡 HTTPConfig bounds outbound calls
type HTTPConfig struct {
	Timeout      string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	LogoMaxBytes int64  `json:"logo_max_bytes,omitempty" yaml:"logo_max_bytes,omitempty"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Upstream      UpstreamConfig `json:"upstream" yaml:"upstream"`
	Regions       []RegionConfig `json:"regions,omitempty" yaml:"regions,omitempty"`
	DefaultRegion string         `json:"default_region,omitempty" yaml:"default_region,omitempty"`
	Token         TokenConfig    `json:"token" yaml:"token"`
	Retry         RetryConfig    `json:"retry" yaml:"retry"`
	Cache         CacheConfig    `json:"cache" yaml:"cache"`
	Cards         CardsConfig    `json:"cards" yaml:"cards"`
	HTTP          HTTPConfig     `json:"http" yaml:"http"`
}

// ⚙️ Settings is the validated, typed view of a Config
type Settings struct {
	AuthURL       string
	APIURL        string
	RedirectURI   string
	ProvidersPath string
	LoyaltyPath   string

	ClientIDs     map[string]string
	DefaultRegion string

	SafetyMargin   time.Duration
	RetryRefresh   bool
	SecretEnv      string
	KeyringService string
	KeyringUser    string

	Retry retry.Policy

	CacheRoot   string
	CacheTTL    time.Duration
	Concurrency int

	CardsTTL time.Duration

	HTTPTimeout  time.Duration
	LogoMaxBytes int64
}

// 🏭 Default returns a config with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🎯 LoadOrDefault loads path when it exists and falls back to Default otherwise
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("config file not found, using defaults")
		return Default(), nil
	}
	return Load(ctx, path)
}

func (cfg *Config) applyDefaults() {
	if cfg.Upstream.AuthURL == "" {
		cfg.Upstream.AuthURL = DefaultAuthURL
	}
	if cfg.Upstream.APIURL == "" {
		cfg.Upstream.APIURL = DefaultAPIURL
	}
	if cfg.Upstream.RedirectURI == "" {
		cfg.Upstream.RedirectURI = DefaultRedirectURI
	}
	if cfg.Upstream.ProvidersPath == "" {
		cfg.Upstream.ProvidersPath = DefaultProvidersPath
	}
	if cfg.Upstream.LoyaltyPath == "" {
		cfg.Upstream.LoyaltyPath = DefaultLoyaltyPath
	}
	if cfg.DefaultRegion == "" {
		cfg.DefaultRegion = DefaultRegion
	}
	cfg.DefaultRegion = strings.ToUpper(cfg.DefaultRegion)

	if cfg.Token.SafetyMargin == "" {
		cfg.Token.SafetyMargin = defaultSafetyMargin
	}
	if cfg.Token.SecretEnv == "" {
		cfg.Token.SecretEnv = DefaultSecretEnv
	}
	if cfg.Token.KeyringService == "" {
		cfg.Token.KeyringService = DefaultKeyringName
	}
	if cfg.Token.KeyringUser == "" {
		cfg.Token.KeyringUser = DefaultKeyringUser
	}

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = retry.DefaultMaxAttempts
	}
	if cfg.Retry.BaseDelay == "" {
		cfg.Retry.BaseDelay = retry.DefaultBaseDelay.String()
	}

	if cfg.Cache.Root == "" {
		cfg.Cache.Root = defaultCacheRoot()
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = defaultCacheTTL
	}
	if cfg.Cache.Concurrency == 0 {
		cfg.Cache.Concurrency = defaultConcurrency
	}

	if cfg.Cards.TTL == "" {
		cfg.Cards.TTL = defaultCardsTTL
	}

	if cfg.HTTP.Timeout == "" {
		cfg.HTTP.Timeout = defaultHTTPTimeout
	}
	if cfg.HTTP.LogoMaxBytes == 0 {
		cfg.HTTP.LogoMaxBytes = defaultLogoMaxBytes
	}
}

func defaultCacheRoot() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "loyalty", "providers")
}

// 🔍 Validate applies defaults and checks if the configuration is valid
func (cfg *Config) Validate() error {
	cfg.applyDefaults()
	cfg.Cache.Root = filepath.Clean(cfg.Cache.Root)

	for _, r := range cfg.Regions {
		if strings.TrimSpace(r.Name) == "" {
			return errors.Errorf("regions: name is required")
		}
		if strings.TrimSpace(r.ClientID) == "" {
			return errors.Errorf("regions.%s: client_id is required", r.Name)
		}
	}

	_, err := cfg.Settings()
	return err
}

// ⚙️ Settings parses durations and merges region overrides into the built-in client ids
func (cfg *Config) Settings() (*Settings, error) {
	cfg.applyDefaults()

	s := &Settings{
		AuthURL:        strings.TrimRight(cfg.Upstream.AuthURL, "/"),
		APIURL:         strings.TrimRight(cfg.Upstream.APIURL, "/"),
		RedirectURI:    cfg.Upstream.RedirectURI,
		ProvidersPath:  cfg.Upstream.ProvidersPath,
		LoyaltyPath:    cfg.Upstream.LoyaltyPath,
		ClientIDs:      make(map[string]string, len(defaultClientIDs)),
		DefaultRegion:  cfg.DefaultRegion,
		RetryRefresh:   !cfg.Token.SkipRefreshRetry,
		SecretEnv:      cfg.Token.SecretEnv,
		KeyringService: cfg.Token.KeyringService,
		KeyringUser:    cfg.Token.KeyringUser,
		CacheRoot:      cfg.Cache.Root,
		Concurrency:    cfg.Cache.Concurrency,
		LogoMaxBytes:   cfg.HTTP.LogoMaxBytes,
	}

	for k, v := range defaultClientIDs {
		s.ClientIDs[k] = v
	}
	for _, r := range cfg.Regions {
		s.ClientIDs[strings.ToUpper(strings.TrimSpace(r.Name))] = strings.TrimSpace(r.ClientID)
	}
	if _, ok := s.ClientIDs[s.DefaultRegion]; !ok {
		return nil, errors.Errorf("default_region %q has no client id, options: %s", s.DefaultRegion, strings.Join(regionNames(s.ClientIDs), ", "))
	}

	durations := []struct {
		field string
		value string
		dst   *time.Duration
	}{
		{"token.safety_margin", cfg.Token.SafetyMargin, &s.SafetyMargin},
		{"retry.base_delay", cfg.Retry.BaseDelay, &s.Retry.BaseDelay},
		{"cache.ttl", cfg.Cache.TTL, &s.CacheTTL},
		{"cards.ttl", cfg.Cards.TTL, &s.CardsTTL},
		{"http.timeout", cfg.HTTP.Timeout, &s.HTTPTimeout},
	}
	if cfg.Retry.MaxDelay != "" {
		durations = append(durations, struct {
			field string
			value string
			dst   *time.Duration
		}{"retry.max_delay", cfg.Retry.MaxDelay, &s.Retry.MaxDelay})
	}

	for _, d := range durations {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, errors.Errorf("%s: %w", d.field, err)
		}
		if v < 0 {
			return nil, errors.Errorf("%s: must not be negative", d.field)
		}
		*d.dst = v
	}

	if cfg.Retry.MaxAttempts < 1 {
		return nil, errors.Errorf("retry.max_attempts must be at least 1")
	}
	s.Retry.MaxAttempts = cfg.Retry.MaxAttempts

	if s.Concurrency < 1 {
		return nil, errors.Errorf("cache.concurrency must be at least 1")
	}

	return s, nil
}

func regionNames(ids map[string]string) []string {
	names := make([]string, 0, len(ids))
	for k := range ids {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s [%s] -> %s (ttl %s)", cfg.Upstream.APIURL, cfg.DefaultRegion, cfg.Cache.Root, cfg.Cache.TTL)
}
