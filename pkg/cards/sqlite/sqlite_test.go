package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/loyalty/pkg/cards"
	"github.com/walteh/loyalty/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

func TestStore(t *testing.T) {
	ctx := testutils.Context(t)

	st, err := Open(ctx, filepath.Join(t.TempDir(), "db", "cards.db"))
	require.NoError(t, err, "opening store")
	t.Cleanup(func() { _ = st.Close() })

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	st.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	fnac, err := st.Create(ctx, cards.Card{Name: "Fnac", Code: "123", Type: cards.TypeBarcode, Provider: "fnac", Country: "fr"})
	require.NoError(t, err)
	assert.Positive(t, fnac.ID)
	assert.Equal(t, "FR", fnac.Country, "country is normalized")
	assert.Equal(t, base.Add(time.Minute), fnac.CreatedAt)

	ikea, err := st.Create(ctx, cards.Card{Name: "IKEA", Code: "QR-1", Type: cards.TypeQR, Provider: "ikea", Country: "SE"})
	require.NoError(t, err)
	fnac2, err := st.Create(ctx, cards.Card{Name: "Fnac (gold)", Code: "456", Type: cards.TypeBarcode, Provider: "fnac", Country: "FR"})
	require.NoError(t, err)

	t.Run("list_newest_first", func(t *testing.T) {
		all, err := st.List(ctx, cards.Filter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []int64{fnac2.ID, ikea.ID, fnac.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})
	})

	t.Run("list_filters", func(t *testing.T) {
		fr, err := st.List(ctx, cards.Filter{Country: "fr"})
		require.NoError(t, err)
		assert.Len(t, fr, 2)

		byProvider, err := st.List(ctx, cards.Filter{Country: "FR", Provider: "fnac"})
		require.NoError(t, err)
		assert.Len(t, byProvider, 2)

		none, err := st.List(ctx, cards.Filter{Provider: "tesco"})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("update", func(t *testing.T) {
		c := ikea
		c.Color = "#0058a3"
		updated, err := st.Update(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, "#0058a3", updated.Color)
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

		_, err = st.Update(ctx, cards.Card{ID: 999, Name: "x", Code: "y", Type: cards.TypeAuto})
		assert.True(t, errors.Is(err, cards.ErrNotFound))
	})

	t.Run("validation", func(t *testing.T) {
		_, err := st.Create(ctx, cards.Card{Name: "no code", Type: cards.TypeBarcode})
		assert.Error(t, err)
		_, err = st.Create(ctx, cards.Card{Name: "bad type", Code: "1", Type: "hologram"})
		assert.Error(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, st.Delete(ctx, fnac.ID))
		_, err := st.Get(ctx, fnac.ID)
		assert.True(t, errors.Is(err, cards.ErrNotFound))
		assert.True(t, errors.Is(st.Delete(ctx, fnac.ID), cards.ErrNotFound))
	})
}

func TestOpenMemory(t *testing.T) {
	ctx := testutils.Context(t)
	st, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer st.Close()

	_, err = st.Create(ctx, cards.Card{Name: "a", Code: "1", Type: cards.TypeAuto})
	require.NoError(t, err)

	all, err := st.List(ctx, cards.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
