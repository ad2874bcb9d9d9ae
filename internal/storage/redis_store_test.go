package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plex-newsletter/internal/document"
	"plex-newsletter/internal/source"
)

func newStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func TestSourceSettingsRoundTrip(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	st, found, err := s.SourceSettings(ctx)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, source.Settings{}, st)

	want := source.Settings{Enabled: true, ServerURL: "http://plex:32400", Token: "abc"}
	require.NoError(t, s.SaveSourceSettings(ctx, want))

	raw, err := mr.Get(settingsKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"enabled":true,"serverUrl":"http://plex:32400","token":"abc"}`, raw)

	got, found, err := s.SourceSettings(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	off := source.Settings{Enabled: false, ServerURL: "http://plex:32400", Token: "abc"}
	require.NoError(t, s.SaveSourceSettings(ctx, off))
	got, found, err = s.SourceSettings(ctx)
	require.NoError(t, err)
	assert.True(t, found, "a disabled record is still a saved record")
	assert.False(t, got.Enabled)
}

func TestCachedRecentExpires(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	_, ok, err := s.CachedRecent(ctx, "demo", document.KindMovies)
	require.NoError(t, err)
	assert.False(t, ok)

	items := []document.MediaEntryInput{{Title: "Inception", Year: "2010"}}
	require.NoError(t, s.CacheRecent(ctx, "demo", document.KindMovies, items, time.Minute))

	got, ok, err := s.CachedRecent(ctx, "demo", document.KindMovies)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Inception", got[0].Title)

	_, ok, _ = s.CachedRecent(ctx, "demo", document.KindMusic)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	_, ok, err = s.CachedRecent(ctx, "demo", document.KindMovies)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLastExport(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, ok, err := s.LastExport(ctx, "Monthly Digest")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkExported(ctx, "Monthly Digest", at))
	got, ok, err := s.LastExport(ctx, "Monthly Digest")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))
}
