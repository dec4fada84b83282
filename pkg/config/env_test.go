package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"gitlab.com/tozd/go/errors"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(mapLookup(map[string]string{
		"LOYALTY_DEFAULT_REGION":     "us",
		"LOYALTY_CLIENT_ID_US":       "env-us",
		"LOYALTY_CACHE_DIR":          "/var/cache/loyalty",
		"LOYALTY_RETRY_MAX_ATTEMPTS": "2",
	}))
	require.NoError(t, err, "applying env")

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, "US", s.DefaultRegion)
	assert.Equal(t, "env-us", s.ClientIDs["US"])
	assert.Equal(t, "/var/cache/loyalty", s.CacheRoot)
	assert.Equal(t, 2, s.Retry.MaxAttempts)

	t.Run("invalid_number", func(t *testing.T) {
		err := Default().ApplyEnv(mapLookup(map[string]string{"LOYALTY_RETRY_MAX_ATTEMPTS": "many"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RETRY_MAX_ATTEMPTS")
	})
}

func TestSecrets(t *testing.T) {
	keyring.MockInit()
	ctx := zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background())

	s, err := Default().Settings()
	require.NoError(t, err)

	t.Run("environment_wins", func(t *testing.T) {
		secrets := NewSecrets(s, SystemKeyring())
		secrets.Lookup = mapLookup(map[string]string{DefaultSecretEnv: "  env-secret "})

		tok, err := secrets.RefreshToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "env-secret", tok)
	})

	t.Run("keyring_fallback", func(t *testing.T) {
		secrets := NewSecrets(s, SystemKeyring())
		secrets.Lookup = mapLookup(nil)

		require.NoError(t, secrets.StoreRefreshToken("stored-secret"))
		t.Cleanup(func() { _ = secrets.ForgetRefreshToken() })

		tok, err := secrets.RefreshToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "stored-secret", tok)
	})

	t.Run("missing_is_config_error", func(t *testing.T) {
		secrets := NewSecrets(s, SystemKeyring())
		secrets.Lookup = mapLookup(nil)
		require.NoError(t, secrets.ForgetRefreshToken())

		_, err := secrets.RefreshToken(ctx)
		require.Error(t, err)

		var cerr *Error
		require.True(t, errors.As(err, &cerr), "should be a config error")
		assert.Equal(t, DefaultSecretEnv, cerr.Key)
	})

	t.Run("empty_token_rejected", func(t *testing.T) {
		secrets := NewSecrets(s, SystemKeyring())
		assert.Error(t, secrets.StoreRefreshToken("   "))
	})
}

func TestLoadDotEnv(t *testing.T) {
	ctx := zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background())
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOYALTY_TEST_DOTENV=from-file\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("LOYALTY_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(ctx, filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("LOYALTY_TEST_DOTENV"))
}
