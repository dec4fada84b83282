package commands

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/loyalty/cmd/loyalty/opts"
	"github.com/walteh/loyalty/pkg/auth"
	"github.com/walteh/loyalty/pkg/config"
	"github.com/walteh/loyalty/pkg/retry"
	"github.com/walteh/loyalty/pkg/testutils"
)

const refreshPath = "/auth/refresh"

// memoryKeyring keeps secrets in a map
type memoryKeyring map[string]string

func (k memoryKeyring) Get(service, user string) (string, error) {
	v, ok := k[service+"/"+user]
	if !ok {
		return "", assert.AnError
	}
	return v, nil
}

func (k memoryKeyring) Set(service, user, password string) error {
	k[service+"/"+user] = password
	return nil
}

func (k memoryKeyring) Delete(service, user string) error {
	delete(k, service+"/"+user)
	return nil
}

func loginFixture(t *testing.T, up *testutils.Upstream) (*opts.RootOpts, memoryKeyring) {
	t.Helper()

	kr := memoryKeyring{}
	secrets := &config.Secrets{
		Env:            config.DefaultSecretEnv,
		KeyringService: "loyalty",
		KeyringUser:    "default",
		Lookup:         func(string) (string, bool) { return "", false },
		Keyring:        kr,
	}

	tokens, err := auth.New(auth.Options{
		HTTPClient: up.Client(),
		AuthURL:    up.URL + "/auth",
		ClientIDs:  map[string]string{"EU": "client-eu"},
		Retry:      retry.Policy{MaxAttempts: 1},
		Secrets:    secrets,
	})
	require.NoError(t, err)

	return &opts.RootOpts{Secrets: secrets, Tokens: tokens}, kr
}

func TestLoginCmd(t *testing.T) {
	t.Run("stores_and_verifies", func(t *testing.T) {
		ctx := testutils.Context(t)
		up := testutils.NewUpstream(t)
		up.Handle(refreshPath, testutils.JSON(http.StatusOK, map[string]any{"access_token": "access", "expires_in": 3600}))
		root, kr := loginFixture(t, up)

		cmd := NewLoginCmd(root)
		cmd.SetContext(ctx)
		cmd.SetArgs([]string{" refresh-secret \n"})
		require.NoError(t, cmd.Execute())

		assert.Equal(t, "refresh-secret", kr["loyalty/default"])
		reqs := up.Requests(refreshPath)
		require.Len(t, reqs, 1, "token exchanged once to verify it")

		var body map[string]string
		require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
		assert.Equal(t, "refresh-secret", body["refresh_token"])

		cur, ok := root.Tokens.Current()
		require.True(t, ok)
		assert.Equal(t, "access", cur.AccessToken)
	})

	t.Run("rejected_token_is_reported", func(t *testing.T) {
		ctx := testutils.Context(t)
		up := testutils.NewUpstream(t)
		up.Handle(refreshPath, testutils.Status(http.StatusUnauthorized))
		root, kr := loginFixture(t, up)

		cmd := NewLoginCmd(root)
		cmd.SetContext(ctx)
		cmd.SetArgs([]string{"bad-secret"})
		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rejected upstream")
		assert.Equal(t, "bad-secret", kr["loyalty/default"], "secret stays stored")
	})

	t.Run("skip_check", func(t *testing.T) {
		ctx := testutils.Context(t)
		up := testutils.NewUpstream(t)
		root, kr := loginFixture(t, up)

		cmd := NewLoginCmd(root)
		cmd.SetContext(ctx)
		cmd.SetArgs([]string{"--skip-check", "offline-secret"})
		require.NoError(t, cmd.Execute())

		assert.Equal(t, "offline-secret", kr["loyalty/default"])
		assert.Equal(t, 0, up.TotalCalls())
	})
}

func TestLogoutCmd(t *testing.T) {
	ctx := testutils.Context(t)
	up := testutils.NewUpstream(t)
	root, kr := loginFixture(t, up)
	kr["loyalty/default"] = "secret"

	cmd := NewLogoutCmd(root)
	cmd.SetContext(ctx)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	assert.Empty(t, kr)
}
