package source

import (
	"context"
	"log/slog"
	"time"

	"plex-newsletter/internal/document"
)

// Cache stores recent items per source and kind. storage.RedisStore
// implements it.
type Cache interface {
	CacheRecent(ctx context.Context, src string, kind document.Kind, items []document.MediaEntryInput, ttl time.Duration) error
	CachedRecent(ctx context.Context, src string, kind document.Kind) ([]document.MediaEntryInput, bool, error)
}

// Cached serves Recent from the cache when it holds enough items and falls
// through to the wrapped source otherwise. Cache errors are logged, never
// returned.
type Cached struct {
	inner Source
	cache Cache
	ttl   time.Duration
}

func NewCached(inner Source, cache Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cached{inner: inner, cache: cache, ttl: ttl}
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) Recent(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error) {
	items, ok, err := c.cache.CachedRecent(ctx, c.inner.Name(), kind)
	if err != nil {
		slog.Warn("source: cache read failed", "source", c.inner.Name(), "kind", kind, "err", err)
	}
	if ok && (count <= 0 || len(items) >= count) {
		return limit(items, count), nil
	}
	return c.Refresh(ctx, kind, count)
}

// Refresh fetches from the wrapped source and replaces the cached entry.
func (c *Cached) Refresh(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error) {
	items, err := c.inner.Recent(ctx, kind, count)
	if err != nil {
		return nil, err
	}
	if err := c.cache.CacheRecent(ctx, c.inner.Name(), kind, items, c.ttl); err != nil {
		slog.Warn("source: cache write failed", "source", c.inner.Name(), "kind", kind, "err", err)
	}
	return items, nil
}
