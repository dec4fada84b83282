package provider

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/loyalty/gen/mockery"
	"github.com/walteh/loyalty/pkg/remote"
	"github.com/walteh/loyalty/pkg/retry"
	"github.com/walteh/loyalty/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

func newFetcher(t *testing.T, up *testutils.Upstream) *RemoteFetcher {
	t.Helper()
	tokens := mockery.NewMockTokenSource_remote(t)
	tokens.EXPECT().Token(mock.Anything, mock.Anything).Return("tok", nil).Maybe()

	client, err := remote.NewClient(remote.ClientOptions{
		HTTPClient: up.Client(),
		BaseURL:    up.URL + "/api",
		Tokens:     tokens,
		Retry:      retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond},
	})
	require.NoError(t, err)
	return NewRemoteFetcher(client, "all-providers")
}

func TestRemoteFetcher(t *testing.T) {
	t.Run("decodes_catalog", func(t *testing.T) {
		ctx := testutils.Context(t)
		up := testutils.NewUpstream(t)
		up.Handle("/api/all-providers", testutils.JSON(http.StatusOK, map[string]any{
			"providers": []map[string]any{
				{
					"provider_id":            "carrefour",
					"provider_name":          "Carrefour",
					"markets":                []string{"FR"},
					"input_type":             "BARCODE_SCANNER",
					"search_terms":           []string{"carrefour market"},
					"visual":                 map[string]any{"logo_url": "https://cdn/c.png", "color": "#004e9f"},
					"default_barcode_format": "EAN_13",
				},
				{"provider_name": "no id"},
			},
		}))

		got, err := newFetcher(t, up).FetchAll(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1, "entries without an id are skipped")
		assert.Equal(t, Provider{
			ID:                   "carrefour",
			Name:                 "Carrefour",
			Markets:              []string{"FR"},
			InputType:            InputBarcodeScanner,
			SearchTerms:          []string{"carrefour market"},
			Visual:               Visual{LogoURL: "https://cdn/c.png", Color: "#004e9f"},
			DefaultBarcodeFormat: EAN13,
		}, got[0])
	})

	t.Run("missing_providers_array", func(t *testing.T) {
		ctx := testutils.Context(t)
		up := testutils.NewUpstream(t)
		up.Handle("/api/all-providers", testutils.JSON(http.StatusOK, map[string]any{"items": []any{}}))

		_, err := newFetcher(t, up).FetchAll(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidResponse))
		assert.Contains(t, err.Error(), "invalid response format")
	})

	t.Run("providers_not_an_array", func(t *testing.T) {
		ctx := testutils.Context(t)
		up := testutils.NewUpstream(t)
		up.Handle("/api/all-providers", testutils.JSON(http.StatusOK, map[string]any{"providers": "nope"}))

		_, err := newFetcher(t, up).FetchAll(ctx)
		assert.True(t, errors.Is(err, ErrInvalidResponse))
	})

	t.Run("api_error_surfaces", func(t *testing.T) {
		ctx := testutils.Context(t)
		up := testutils.NewUpstream(t)
		up.Handle("/api/all-providers", testutils.Status(http.StatusBadRequest))

		_, err := newFetcher(t, up).FetchAll(ctx)
		var rerr *remote.Error
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, http.StatusBadRequest, rerr.Status)
	})
}

func TestFilterMarket(t *testing.T) {
	list := catalog()
	assert.Equal(t, []string{"carrefour", "fnac", "ikea"}, ids(FilterMarket(list, " fr ")))
	assert.Len(t, FilterMarket(list, ""), 4, "empty country keeps everything")
	assert.Empty(t, FilterMarket(list, "US"))
}

func TestSearch(t *testing.T) {
	list := []Provider{
		{ID: "intermarche", Name: "Intermarché", SearchTerms: []string{"les mousquetaires"}},
		{ID: "carrefour-market", Name: "Carrefour Market"},
		{ID: "carrefour", Name: "Carrefour"},
		{ID: "supermarket", Name: "Super Market"},
		{ID: "decathlon", Name: "Decathlon"},
	}

	t.Run("prefix_before_contains", func(t *testing.T) {
		got := Search(list, "market")
		require.Len(t, got, 2)
		assert.Equal(t, "carrefour-market", got[0].ID, "both contain, sorted by name")
		assert.Equal(t, "supermarket", got[1].ID)
	})

	t.Run("prefix_sorted_by_name", func(t *testing.T) {
		got := Search(list, "carre")
		require.Len(t, got, 2)
		assert.Equal(t, []string{"carrefour", "carrefour-market"}, []string{got[0].ID, got[1].ID})
	})

	t.Run("accents_and_terms", func(t *testing.T) {
		got := Search(list, "MARCHE")
		require.NotEmpty(t, got)
		assert.Equal(t, "intermarche", got[0].ID)

		got = Search(list, "mousq")
		require.Len(t, got, 1)
		assert.Equal(t, "intermarche", got[0].ID)
	})

	t.Run("glob", func(t *testing.T) {
		got := Search(list, "*thlon")
		require.Len(t, got, 1)
		assert.Equal(t, "decathlon", got[0].ID)
	})
}
