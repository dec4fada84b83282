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
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/zalando/go-keyring"
	"gitlab.com/tozd/go/errors"
)

const envPrefix = "LOYALTY_"

// ⚠️ Error reports a missing or unusable configuration value
//
// It is fatal at first use and never retried.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// 📥 LoadDotEnv loads KEY=VALUE files into the process environment
//
// Missing files are skipped; variables already set are never overridden.
func LoadDotEnv(ctx context.Context, paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Errorf("loading %s: %w", p, err)
		}
		zerolog.Ctx(ctx).Debug().Str("path", p).Msg("loaded env file")
	}
	return nil
}

// 🌱 ApplyEnv overrides config values from LOYALTY_* variables
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(envPrefix + "DEFAULT_REGION"); ok && v != "" {
		cfg.DefaultRegion = strings.ToUpper(v)
	}
	if v, ok := lookup(envPrefix + "CACHE_DIR"); ok && v != "" {
		cfg.Cache.Root = v
	}
	if v, ok := lookup(envPrefix + "CACHE_TTL"); ok && v != "" {
		cfg.Cache.TTL = v
	}
	if v, ok := lookup(envPrefix + "HTTP_TIMEOUT"); ok && v != "" {
		cfg.HTTP.Timeout = v
	}
	if v, ok := lookup(envPrefix + "RETRY_MAX_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Errorf("%sRETRY_MAX_ATTEMPTS: %w", envPrefix, err)
		}
		cfg.Retry.MaxAttempts = n
	}

	for _, region := range []string{"EU", "US", "AP"} {
		v, ok := lookup(envPrefix + "CLIENT_ID_" + region)
		if !ok || v == "" {
			continue
		}
		replaced := false
		for i := range cfg.Regions {
			if strings.EqualFold(cfg.Regions[i].Name, region) {
				cfg.Regions[i].ClientID = v
				replaced = true
			}
		}
		if !replaced {
			cfg.Regions = append(cfg.Regions, RegionConfig{Name: region, ClientID: v})
		}
	}

	return cfg.Validate()
}

// 🔐 Keyring is the subset of an OS keyring used for the refresh-token secret
type Keyring interface {
	Get(service, user string) (string, error)
	Set(service, user, password string) error
	Delete(service, user string) error
}

// systemKeyring delegates to the OS keyring
type systemKeyring struct{}

func (systemKeyring) Get(service, user string) (string, error) { return keyring.Get(service, user) }
func (systemKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}
func (systemKeyring) Delete(service, user string) error { return keyring.Delete(service, user) }

// SystemKeyring returns the OS keyring.
func SystemKeyring() Keyring {
	return systemKeyring{}
}

// 🗝️ Secrets resolves the refresh-token secret, environment first then keyring
type Secrets struct {
	Env            string
	KeyringService string
	KeyringUser    string
	Lookup         func(string) (string, bool)
	Keyring        Keyring
}

// 🏭 NewSecrets builds a resolver from validated settings
func NewSecrets(s *Settings, kr Keyring) *Secrets {
	return &Secrets{
		Env:            s.SecretEnv,
		KeyringService: s.KeyringService,
		KeyringUser:    s.KeyringUser,
		Lookup:         os.LookupEnv,
		Keyring:        kr,
	}
}

// RefreshToken returns the configured refresh-token secret or a *Error.
func (s *Secrets) RefreshToken(ctx context.Context) (string, error) {
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(s.Env); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}

	if s.Keyring != nil {
		v, err := s.Keyring.Get(s.KeyringService, s.KeyringUser)
		if err == nil && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			zerolog.Ctx(ctx).Debug().Err(err).Msg("keyring lookup failed")
		}
	}

	return "", &Error{Key: s.Env, Reason: "refresh token is not set in the environment or the keyring"}
}

// StoreRefreshToken saves the secret in the keyring.
func (s *Secrets) StoreRefreshToken(token string) error {
	if s.Keyring == nil {
		return &Error{Key: s.KeyringService, Reason: "no keyring available"}
	}
	if strings.TrimSpace(token) == "" {
		return &Error{Key: s.KeyringService, Reason: "refresh token is empty"}
	}
	if err := s.Keyring.Set(s.KeyringService, s.KeyringUser, strings.TrimSpace(token)); err != nil {
		return errors.Errorf("storing refresh token: %w", err)
	}
	return nil
}

// ForgetRefreshToken removes the secret from the keyring.
func (s *Secrets) ForgetRefreshToken() error {
	if s.Keyring == nil {
		return nil
	}
	if err := s.Keyring.Delete(s.KeyringService, s.KeyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return errors.Errorf("removing refresh token: %w", err)
	}
	return nil
}
