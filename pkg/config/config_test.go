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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		config      string
		wantErr     bool
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:     "valid_yaml",
			filename: "loyalty.yaml",
			config: `
upstream:
  api_url: https://example.test/api/
regions:
  - name: eu
    client_id: custom-eu
default_region: eu
cache:
  root: /tmp/loyalty
  ttl: 1h
  concurrency: 4
retry:
  max_attempts: 3
  base_delay: 100ms
`,
			check: func(t *testing.T, cfg *Config) {
				s, err := cfg.Settings()
				require.NoError(t, err, "settings should resolve")
				assert.Equal(t, "https://example.test/api", s.APIURL, "trailing slash should be trimmed")
				assert.Equal(t, DefaultAuthURL, s.AuthURL, "auth url should default")
				assert.Equal(t, "custom-eu", s.ClientIDs["EU"], "region override should apply")
				assert.Equal(t, defaultClientIDs["US"], s.ClientIDs["US"], "other regions keep built-ins")
				assert.Equal(t, "EU", s.DefaultRegion, "region should be upper-cased")
				assert.Equal(t, time.Hour, s.CacheTTL, "ttl should match")
				assert.Equal(t, 4, s.Concurrency, "concurrency should match")
				assert.Equal(t, 3, s.Retry.MaxAttempts, "attempts should match")
				assert.Equal(t, 100*time.Millisecond, s.Retry.BaseDelay, "base delay should match")
				assert.Equal(t, 5*time.Minute, s.SafetyMargin, "safety margin should default")
				assert.Equal(t, 30*time.Minute, s.CardsTTL, "cards ttl should default")
				assert.True(t, s.RetryRefresh, "refresh retry should default on")
			},
		},
		{
			name:     "valid_hcl",
			filename: "loyalty.hcl",
			config: `
default_region = "US"

region "AP" {
  client_id = "custom-ap"
}

token {
  safety_margin      = "2m"
  skip_refresh_retry = true
}

cache {
  ttl = "30m"
}

http {
  timeout = "5s"
}
`,
			check: func(t *testing.T, cfg *Config) {
				s, err := cfg.Settings()
				require.NoError(t, err, "settings should resolve")
				assert.Equal(t, "US", s.DefaultRegion, "default region should match")
				assert.Equal(t, "custom-ap", s.ClientIDs["AP"], "region block should apply")
				assert.Equal(t, 2*time.Minute, s.SafetyMargin, "safety margin should match")
				assert.False(t, s.RetryRefresh, "refresh retry should be disabled")
				assert.Equal(t, 30*time.Minute, s.CacheTTL, "ttl should match")
				assert.Equal(t, 5*time.Second, s.HTTPTimeout, "timeout should match")
			},
		},
		{
			name:     "valid_json",
			filename: "loyalty.json",
			config:   `{"upstream": {"loyalty_path": "cards"}, "cards": {"ttl": "1m"}}`,
			check: func(t *testing.T, cfg *Config) {
				s, err := cfg.Settings()
				require.NoError(t, err, "settings should resolve")
				assert.Equal(t, "cards", s.LoyaltyPath, "loyalty path should match")
				assert.Equal(t, DefaultProvidersPath, s.ProvidersPath, "providers path should default")
				assert.Equal(t, time.Minute, s.CardsTTL, "cards ttl should match")
			},
		},
		{
			name:        "unknown_yaml_field",
			filename:    "loyalty.yaml",
			config:      "nope: true\n",
			wantErr:     true,
			errContains: "parsing YAML",
		},
		{
			name:        "bad_duration",
			filename:    "loyalty.yaml",
			config:      "cache:\n  ttl: soon\n",
			wantErr:     true,
			errContains: "cache.ttl",
		},
		{
			name:        "unknown_default_region",
			filename:    "loyalty.yaml",
			config:      "default_region: MARS\n",
			wantErr:     true,
			errContains: "has no client id",
		},
		{
			name:        "region_without_client_id",
			filename:    "loyalty.json",
			config:      `{"regions": [{"name": "EU"}]}`,
			wantErr:     true,
			errContains: "client_id is required",
		},
		{
			name:        "unsupported_extension",
			filename:    "loyalty.toml",
			config:      "",
			wantErr:     true,
			errContains: "no parser found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background())
			path := filepath.Join(t.TempDir(), tt.filename)
			require.NoError(t, os.WriteFile(path, []byte(tt.config), 0644), "writing config")

			cfg, err := Load(ctx, path)
			if tt.wantErr {
				require.Error(t, err, "Load should fail")
				assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
				return
			}

			require.NoError(t, err, "Load should succeed")
			tt.check(t, cfg)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	ctx := zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background())

	cfg, err := LoadOrDefault(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err, "missing file should fall back to defaults")

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, DefaultRegion, s.DefaultRegion)
	assert.Equal(t, 720*time.Hour, s.CacheTTL, "catalog ttl should default to 30 days")
	assert.Equal(t, 8, s.Concurrency)
	assert.Len(t, s.ClientIDs, 3, "three built-in regions")
	assert.Contains(t, cfg.String(), DefaultAPIURL)
}
