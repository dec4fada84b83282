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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "loyalty.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// Define HCL schema
	type hclConfig struct {
		DefaultRegion string `hcl:"default_region,optional"`
		Upstream      *struct {
			AuthURL       string `hcl:"auth_url,optional"`
			APIURL        string `hcl:"api_url,optional"`
			RedirectURI   string `hcl:"redirect_uri,optional"`
			ProvidersPath string `hcl:"providers_path,optional"`
			LoyaltyPath   string `hcl:"loyalty_path,optional"`
		} `hcl:"upstream,block"`
		Regions []struct {
			Name     string `hcl:"name,label"`
			ClientID string `hcl:"client_id"`
		} `hcl:"region,block"`
		Token *struct {
			SafetyMargin     string `hcl:"safety_margin,optional"`
			SecretEnv        string `hcl:"secret_env,optional"`
			KeyringService   string `hcl:"keyring_service,optional"`
			KeyringUser      string `hcl:"keyring_user,optional"`
			SkipRefreshRetry bool   `hcl:"skip_refresh_retry,optional"`
		} `hcl:"token,block"`
		Retry *struct {
			MaxAttempts int    `hcl:"max_attempts,optional"`
			BaseDelay   string `hcl:"base_delay,optional"`
			MaxDelay    string `hcl:"max_delay,optional"`
		} `hcl:"retry,block"`
		Cache *struct {
			Root        string `hcl:"root,optional"`
			TTL         string `hcl:"ttl,optional"`
			Concurrency int    `hcl:"concurrency,optional"`
		} `hcl:"cache,block"`
		Cards *struct {
			TTL string `hcl:"ttl,optional"`
		} `hcl:"cards,block"`
		HTTP *struct {
			Timeout      string `hcl:"timeout,optional"`
			LogoMaxBytes int64  `hcl:"logo_max_bytes,optional"`
		} `hcl:"http,block"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{DefaultRegion: hclCfg.DefaultRegion}
	if u := hclCfg.Upstream; u != nil {
		cfg.Upstream = UpstreamConfig{
			AuthURL:       u.AuthURL,
			APIURL:        u.APIURL,
			RedirectURI:   u.RedirectURI,
			ProvidersPath: u.ProvidersPath,
			LoyaltyPath:   u.LoyaltyPath,
		}
	}
	for _, r := range hclCfg.Regions {
		cfg.Regions = append(cfg.Regions, RegionConfig{Name: r.Name, ClientID: r.ClientID})
	}
	if t := hclCfg.Token; t != nil {
		cfg.Token = TokenConfig{
			SafetyMargin:     t.SafetyMargin,
			SecretEnv:        t.SecretEnv,
			KeyringService:   t.KeyringService,
			KeyringUser:      t.KeyringUser,
			SkipRefreshRetry: t.SkipRefreshRetry,
		}
	}
	if r := hclCfg.Retry; r != nil {
		cfg.Retry = RetryConfig{MaxAttempts: r.MaxAttempts, BaseDelay: r.BaseDelay, MaxDelay: r.MaxDelay}
	}
	if c := hclCfg.Cache; c != nil {
		cfg.Cache = CacheConfig{Root: c.Root, TTL: c.TTL, Concurrency: c.Concurrency}
	}
	if c := hclCfg.Cards; c != nil {
		cfg.Cards = CardsConfig{TTL: c.TTL}
	}
	if h := hclCfg.HTTP; h != nil {
		cfg.HTTP = HTTPConfig{Timeout: h.Timeout, LogoMaxBytes: h.LogoMaxBytes}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}
