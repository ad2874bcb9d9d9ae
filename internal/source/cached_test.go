package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plex-newsletter/internal/document"
)

type memCache struct {
	items map[document.Kind][]document.MediaEntryInput
	fail  bool
}

func (m *memCache) CacheRecent(_ context.Context, _ string, kind document.Kind, items []document.MediaEntryInput, _ time.Duration) error {
	if m.fail {
		return errors.New("down")
	}
	m.items[kind] = items
	return nil
}

func (m *memCache) CachedRecent(_ context.Context, _ string, kind document.Kind) ([]document.MediaEntryInput, bool, error) {
	if m.fail {
		return nil, false, errors.New("down")
	}
	it, ok := m.items[kind]
	return it, ok, nil
}

type counting struct {
	Demo
	calls int
}

func (c *counting) Recent(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error) {
	c.calls++
	return c.Demo.Recent(ctx, kind, count)
}

func TestCachedServesFromCache(t *testing.T) {
	inner := &counting{}
	c := NewCached(inner, &memCache{items: map[document.Kind][]document.MediaEntryInput{}}, time.Minute)

	first, err := c.Recent(context.Background(), document.KindMovies, 2)
	require.NoError(t, err)
	second, err := c.Recent(context.Background(), document.KindMovies, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first[:1], second)

	_, err = c.Recent(context.Background(), document.KindMovies, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "a short cached list is refetched")
}

func TestCachedSurvivesCacheOutage(t *testing.T) {
	inner := &counting{}
	c := NewCached(inner, &memCache{fail: true}, time.Minute)

	items, err := c.Recent(context.Background(), document.KindMusic, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
