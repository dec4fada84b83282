package cards_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/loyalty/gen/mockery"
	"github.com/walteh/loyalty/pkg/cards"
	"github.com/walteh/loyalty/pkg/remote"
	"github.com/walteh/loyalty/pkg/retry"
	"github.com/walteh/loyalty/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

const contentPath = "/api/loyalty-content"

type stubLogos struct {
	mu    sync.Mutex
	calls []string
}

func (s *stubLogos) Embed(ctx context.Context, url string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	s.mu.Unlock()
	if url == "https://cdn/broken.png" {
		return "", errors.New("boom")
	}
	return "data:image/png;base64," + url[len("https://cdn/"):], nil
}

func walletContent() map[string]any {
	ident := func(custom bool, id, name, label, logo, color, format string, content any) map[string]any {
		return map[string]any{
			"is_custom_card": custom,
			"processed": map[string]any{
				"provider_id": id,
				"name":        name,
				"label":       label,
				"visual":      map[string]any{"logo_url": logo, "color": color},
				"barcode":     map[string]any{"format": format, "content": content},
			},
		}
	}
	return map[string]any{"loyalty_identifiers": []any{
		ident(false, "fnac", "Fnac", "  Gold ", "https://cdn/fnac.png", "#e1a925", "EAN_13", "2900000012345"),
		ident(false, "ikea", "IKEA", "", "https://cdn/ikea.png", "#0058a3", "QR_CODE", 627598123),
		ident(true, "", "Gym", "", "https://cdn/gym.png", "#000000", "CODE_128", "G-1"),
		ident(false, "decathlon", "Decathlon", "", "https://cdn/broken.png", "#0082c3", "CODE_39", "D1"),
		ident(false, "tesco", "Tesco", "", "", "#00539f", "ITF", 42.5),
	}}
}

type importFixture struct {
	up    *testutils.Upstream
	logos *stubLogos
	now   time.Time
	imp   *cards.Importer
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	f := &importFixture{up: testutils.NewUpstream(t), logos: &stubLogos{}, now: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)}

	tokens := mockery.NewMockTokenSource_remote(t)
	tokens.EXPECT().Token(mock.Anything, mock.Anything).Return("tok", nil).Maybe()

	client, err := remote.NewClient(remote.ClientOptions{
		HTTPClient: f.up.Client(),
		BaseURL:    f.up.URL + "/api",
		Tokens:     tokens,
		Retry:      retry.Policy{MaxAttempts: 1},
	})
	require.NoError(t, err)

	f.imp, err = cards.NewImporter(cards.ImporterOptions{
		Client: client,
		Path:   "loyalty-content",
		Logos:  f.logos,
		TTL:    30 * time.Minute,
		Now:    func() time.Time { return f.now },
	})
	require.NoError(t, err)
	return f
}

func TestImport(t *testing.T) {
	t.Run("maps_identifiers", func(t *testing.T) {
		ctx := testutils.Context(t)
		f := newImportFixture(t)
		f.up.Handle(contentPath, testutils.JSON(http.StatusOK, walletContent()))

		got, err := f.imp.Import(ctx)
		require.NoError(t, err)
		require.Len(t, got, 5)

		assert.Equal(t, cards.Card{
			ID: cards.UnsavedID, Name: "Fnac (Gold)", Code: "2900000012345", Logo: "data:image/png;base64,fnac.png",
			Color: "#e1a925", Type: cards.TypeBarcode, Provider: "fnac",
		}, got[0])

		assert.Equal(t, "IKEA", got[1].Name, "no label, no suffix")
		assert.Equal(t, cards.TypeQR, got[1].Type)
		assert.Equal(t, "627598123", got[1].Code, "numeric content is stringified")

		assert.Empty(t, got[2].Logo, "custom cards never embed logos")
		assert.Equal(t, "Gym", got[2].Name)

		assert.Empty(t, got[3].Logo, "logo failure leaves an empty logo")
		assert.Equal(t, cards.TypeBarcode, got[3].Type)

		assert.Equal(t, "42.5", got[4].Code)
		assert.Empty(t, got[4].Logo)

		assert.ElementsMatch(t, []string{"https://cdn/fnac.png", "https://cdn/ikea.png", "https://cdn/broken.png"}, f.logos.calls)
	})

	t.Run("served_from_memory_within_ttl", func(t *testing.T) {
		ctx := testutils.Context(t)
		f := newImportFixture(t)
		f.up.Handle(contentPath, testutils.JSON(http.StatusOK, walletContent()))

		first, err := f.imp.Import(ctx)
		require.NoError(t, err)

		f.now = f.now.Add(29 * time.Minute)
		second, err := f.imp.Import(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, f.up.Calls(contentPath))

		second[0].Name = "mutated"
		third, err := f.imp.Import(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Fnac (Gold)", third[0].Name, "callers get copies")

		f.now = f.now.Add(time.Minute)
		_, err = f.imp.Import(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, f.up.Calls(contentPath), "expired after the ttl")
	})

	t.Run("failure_is_not_cached", func(t *testing.T) {
		ctx := testutils.Context(t)
		f := newImportFixture(t)
		f.up.Handle(contentPath, testutils.Sequence(
			testutils.Status(http.StatusInternalServerError),
			testutils.JSON(http.StatusOK, walletContent()),
		))

		_, err := f.imp.Import(ctx)
		require.Error(t, err)
		var rerr *remote.Error
		assert.True(t, errors.As(err, &rerr))

		got, err := f.imp.Import(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 5)
	})

	t.Run("invalidate", func(t *testing.T) {
		ctx := testutils.Context(t)
		f := newImportFixture(t)
		f.up.Handle(contentPath, testutils.JSON(http.StatusOK, walletContent()))

		_, err := f.imp.Import(ctx)
		require.NoError(t, err)
		f.imp.Invalidate()
		_, err = f.imp.Import(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, f.up.Calls(contentPath))
	})

	t.Run("invalidate_during_fetch_discards_result", func(t *testing.T) {
		ctx := testutils.Context(t)
		f := newImportFixture(t)
		release := make(chan struct{})
		f.up.Handle(contentPath, testutils.Gate(release, testutils.JSON(http.StatusOK, walletContent())))

		done := make(chan error, 1)
		go func() {
			got, err := f.imp.Import(ctx)
			if err == nil && len(got) != 5 {
				err = errors.Errorf("got %d cards", len(got))
			}
			done <- err
		}()

		require.Eventually(t, func() bool { return f.up.Calls(contentPath) == 1 }, time.Second, time.Millisecond)
		f.imp.Invalidate()
		close(release)
		require.NoError(t, <-done, "the caller of the running fetch still gets its result")

		_, err := f.imp.Import(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, f.up.Calls(contentPath), "the invalidated result is not served from memory")
	})

	t.Run("empty_wallet_is_cached", func(t *testing.T) {
		ctx := testutils.Context(t)
		f := newImportFixture(t)
		f.up.Handle(contentPath, testutils.JSON(http.StatusOK, map[string]any{"loyalty_identifiers": []any{}}))

		got, err := f.imp.Import(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
		_, err = f.imp.Import(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, f.up.Calls(contentPath))
	})
}
