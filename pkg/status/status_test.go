package status

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/loyalty/pkg/provider"
	"github.com/walteh/loyalty/pkg/state"
)

func setupTestLogger(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

var fetchedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func seedStore(t *testing.T, ctx context.Context) *state.Store {
	t.Helper()
	store, err := state.New(t.TempDir())
	require.NoError(t, err)

	for _, p := range []provider.Provider{
		{ID: "fnac", Name: "Fnac", Visual: provider.Visual{LogoURL: "data:image/png;base64,AA=="}},
		{ID: "ikea", Name: "IKEA"},
	} {
		require.NoError(t, store.WriteRecord(ctx, p.ID, p))
	}
	require.NoError(t, store.SaveMetadata(ctx, &state.Metadata{
		LastFetchedAt: fetchedAt,
		Providers: []state.Entry{
			{ProviderID: "fnac", LastUpdated: fetchedAt, HasLogo: true},
			{ProviderID: "ikea", LastUpdated: fetchedAt},
		},
	}))
	return store
}

func TestInspect(t *testing.T) {
	ctx := setupTestLogger(t)

	t.Run("healthy_cache", func(t *testing.T) {
		store := seedStore(t, ctx)

		report, err := Inspect(ctx, store, time.Hour, fetchedAt.Add(10*time.Minute))
		require.NoError(t, err)

		assert.True(t, report.HasMetadata)
		assert.True(t, report.Fresh)
		assert.True(t, report.Healthy())
		assert.Equal(t, 10*time.Minute, report.Age)
		assert.Equal(t, 2, report.Count(StatusPresent))
		assert.Equal(t, 1, report.WithLogo())
		assert.Equal(t, "Fnac", report.Records[0].Name)
	})

	t.Run("stale_at_exactly_ttl", func(t *testing.T) {
		store := seedStore(t, ctx)

		report, err := Inspect(ctx, store, time.Hour, fetchedAt.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, report.Fresh)
		assert.False(t, report.Healthy())
	})

	t.Run("no_metadata", func(t *testing.T) {
		store, err := state.New(t.TempDir())
		require.NoError(t, err)

		report, err := Inspect(ctx, store, time.Hour, fetchedAt)
		require.NoError(t, err)
		assert.False(t, report.HasMetadata)
		assert.Nil(t, report.MetadataErr)
		assert.Empty(t, report.Records)
	})

	t.Run("unreadable_metadata", func(t *testing.T) {
		store := seedStore(t, ctx)
		require.NoError(t, os.WriteFile(store.MetadataPath(), []byte("{not json"), 0o644))

		report, err := Inspect(ctx, store, time.Hour, fetchedAt)
		require.NoError(t, err)
		assert.True(t, report.HasMetadata)
		require.Error(t, report.MetadataErr)
		assert.False(t, report.Healthy())

		for _, rec := range report.Records {
			assert.Equal(t, StatusOrphan, rec.Status, "records are orphaned without an index")
		}
		assert.Len(t, report.Records, 2)
	})

	t.Run("missing_corrupt_and_orphan_records", func(t *testing.T) {
		store := seedStore(t, ctx)

		require.NoError(t, store.RemoveRecord(ctx, "ikea"))
		path, err := store.RecordPath("fnac")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
		require.NoError(t, store.WriteRecord(ctx, "tesco", provider.Provider{ID: "tesco", Name: "Tesco"}))

		report, err := Inspect(ctx, store, time.Hour, fetchedAt)
		require.NoError(t, err)

		byID := map[string]Record{}
		for _, rec := range report.Records {
			byID[rec.ID] = rec
		}
		assert.Equal(t, StatusCorrupt, byID["fnac"].Status)
		assert.Error(t, byID["fnac"].Err)
		assert.Equal(t, StatusMissing, byID["ikea"].Status)
		assert.Equal(t, StatusOrphan, byID["tesco"].Status)
		assert.False(t, report.Healthy())
	})

	t.Run("record_for_another_provider", func(t *testing.T) {
		store := seedStore(t, ctx)
		require.NoError(t, store.WriteRecord(ctx, "ikea", provider.Provider{ID: "fnac"}))

		report, err := Inspect(ctx, store, time.Hour, fetchedAt)
		require.NoError(t, err)
		assert.Equal(t, StatusCorrupt, report.Records[1].Status)
		assert.Contains(t, report.Records[1].Err.Error(), `"fnac"`)
	})

	t.Run("root_is_a_file", func(t *testing.T) {
		dir := t.TempDir()
		root := filepath.Join(dir, "cache")
		require.NoError(t, os.MkdirAll(root, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, state.RecordsDir), []byte("x"), 0o644))

		store, err := state.New(root)
		require.NoError(t, err)
		_, err = Inspect(ctx, store, time.Hour, fetchedAt)
		require.Error(t, err)
	})
}

func TestFormat(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	tests := []struct {
		name   string
		report *Report
		want   []string
	}{
		{
			name:   "empty_cache",
			report: &Report{Root: "/tmp/cache"},
			want:   []string{"📭 No cached catalog in /tmp/cache"},
		},
		{
			name: "fresh_hides_present_records",
			report: &Report{
				Root: "/tmp/cache", HasMetadata: true, Fresh: true, Age: 90 * time.Second, TTL: time.Hour,
				Records: []Record{
					{ID: "fnac", Name: "Fnac", HasLogo: true, Status: StatusPresent},
					{ID: "ikea", Status: StatusMissing},
				},
			},
			want: []string{
				"📦 1 providers (1 with logo) fetched 1m30s ago, fresh (ttl 1h0m0s)",
				"    ✗ ikea" + strings.Repeat(" ", 52) + "missing",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.report))
		})
	}
}

func TestFormatRecord(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	line := FormatRecord(Record{ID: "fnac", Name: "Fnac", Status: StatusPresent, HasLogo: true})
	assert.Contains(t, line, "✓ fnac")
	assert.Contains(t, line, "present")
	assert.Contains(t, line, "🖼️")

	line = FormatRecord(Record{ID: "x", Status: StatusCorrupt, Err: assert.AnError})
	assert.Contains(t, line, assert.AnError.Error())
}
